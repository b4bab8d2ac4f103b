// Package validate rejects provider payloads that lack the minimum shape
// needed before any write is attempted.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

// ShapeError reports a payload rejected by validation.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "validate: " + e.Reason
}

// IsShapeError reports whether err is or wraps a ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

// Required lists the data sections every payload must carry as lists.
var Required = []string{model.TableProfitAndLoss, model.TableBalanceSheet, model.TableCashFlow}

// Optional lists the data sections that may be missing or null.
var Optional = []string{model.TableAnalysis, model.TableProsAndCons, model.TableDocuments}

func shapef(format string, args ...any) error {
	return &ShapeError{Reason: fmt.Sprintf(format, args...)}
}

// Check inspects a decoded document. It fails with a ShapeError when the
// document is not an object, has no "data" object, or any required section
// is missing or not a list. Row contents are not inspected.
func Check(doc any) error {
	root, ok := doc.(map[string]any)
	if !ok {
		return shapef("payload is not an object")
	}
	raw, ok := root["data"]
	if !ok {
		return shapef("payload has no data section")
	}
	data, ok := raw.(map[string]any)
	if !ok {
		return shapef("data section is not an object")
	}
	for _, name := range Required {
		v, ok := data[name]
		if !ok {
			return shapef("data.%s is missing", name)
		}
		if _, ok := v.([]any); !ok {
			return shapef("data.%s is not a list", name)
		}
	}
	return nil
}

// Parse decodes a raw provider body and validates it into a Payload.
//
// Beyond Check it requires a company object with a non-empty id and rejects
// optional sections that are present but not lists. A null optional section
// is treated as empty.
func Parse(body []byte) (*model.Payload, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, shapef("payload is not valid JSON: %v", err)
	}
	if err := Check(doc); err != nil {
		return nil, err
	}

	root := doc.(map[string]any)
	company, ok := root["company"].(map[string]any)
	if !ok {
		return nil, shapef("payload has no company object")
	}
	if !hasID(company) {
		return nil, shapef("company has no id")
	}

	data := root["data"].(map[string]any)
	for _, name := range Optional {
		v, ok := data[name]
		if !ok || v == nil {
			continue
		}
		if _, ok := v.([]any); !ok {
			return nil, shapef("data.%s is not a list", name)
		}
	}

	return &model.Payload{
		Company: company,
		Data: model.Sections{
			Analysis:      list(data, model.TableAnalysis),
			ProsAndCons:   list(data, model.TableProsAndCons),
			BalanceSheet:  list(data, model.TableBalanceSheet),
			ProfitAndLoss: list(data, model.TableProfitAndLoss),
			CashFlow:      list(data, model.TableCashFlow),
			Documents:     list(data, model.TableDocuments),
		},
	}, nil
}

func hasID(company map[string]any) bool {
	for _, key := range []string{"id", "company_id"} {
		switch v := company[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return true
			}
		case float64:
			return true
		}
	}
	return false
}

func list(data map[string]any, name string) []any {
	l, _ := data[name].([]any)
	return l
}
