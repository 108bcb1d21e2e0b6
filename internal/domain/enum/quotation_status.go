package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// QuotationStatus represents the status of a quotation
type QuotationStatus int

const (
	QuotationStatusDraft     QuotationStatus = 0
	QuotationStatusSent      QuotationStatus = 1
	QuotationStatusAccepted  QuotationStatus = 2
	QuotationStatusRejected  QuotationStatus = 3
	QuotationStatusExpired   QuotationStatus = 4
	QuotationStatusConverted QuotationStatus = 5
)

var quotationStatusNames = [...]string{"DRAFT", "SENT", "ACCEPTED", "REJECTED", "EXPIRED", "CONVERTED"}

var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationStatusDraft: {
		QuotationStatusSent, QuotationStatusAccepted, QuotationStatusRejected,
		QuotationStatusExpired, QuotationStatusConverted,
	},
	QuotationStatusSent: {
		QuotationStatusDraft, QuotationStatusAccepted, QuotationStatusRejected,
		QuotationStatusExpired, QuotationStatusConverted,
	},
	QuotationStatusAccepted: {QuotationStatusConverted},
}

func (s QuotationStatus) String() string {
	if int(s) < 0 || int(s) >= len(quotationStatusNames) {
		return "DRAFT"
	}
	return quotationStatusNames[s]
}

// CanTransitionTo reports whether the table allows moving from s to next
func (s QuotationStatus) CanTransitionTo(next QuotationStatus) bool {
	for _, allowed := range quotationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsEditable reports whether lines and header fields may still change
func (s QuotationStatus) IsEditable() bool {
	return s == QuotationStatusDraft || s == QuotationStatusSent
}

// IsConvertible reports whether the quotation may become an invoice
func (s QuotationStatus) IsConvertible() bool {
	return s.CanTransitionTo(QuotationStatusConverted)
}

func ParseQuotationStatus(str string) (QuotationStatus, error) {
	for i, name := range quotationStatusNames {
		if name == str {
			return QuotationStatus(i), nil
		}
	}
	return QuotationStatusDraft, fmt.Errorf("unknown quotation status %q", str)
}

func (s QuotationStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *QuotationStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = QuotationStatus(i)
		return nil
	}
	parsed, err := ParseQuotationStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s QuotationStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *QuotationStatus) Scan(value interface{}) error {
	if value == nil {
		*s = QuotationStatusDraft
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = QuotationStatus(v)
	case int:
		*s = QuotationStatus(v)
	}
	return nil
}
