package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CreditNoteStatus represents the lifecycle state of a credit note
type CreditNoteStatus int

const (
	CreditNoteStatusActive    CreditNoteStatus = 0
	CreditNoteStatusApplied   CreditNoteStatus = 1
	CreditNoteStatusCancelled CreditNoteStatus = 2
)

var creditNoteStatusNames = [...]string{"ACTIVE", "APPLIED", "CANCELLED"}

// creditNoteTransitions lists every allowed status change. Cancelling an
// applied note is permitted; the payment it produced stays on the invoice.
var creditNoteTransitions = map[CreditNoteStatus][]CreditNoteStatus{
	CreditNoteStatusActive:  {CreditNoteStatusApplied, CreditNoteStatusCancelled},
	CreditNoteStatusApplied: {CreditNoteStatusCancelled},
}

func (s CreditNoteStatus) String() string {
	if int(s) < 0 || int(s) >= len(creditNoteStatusNames) {
		return "ACTIVE"
	}
	return creditNoteStatusNames[s]
}

// CanTransitionTo reports whether the table allows moving from s to next
func (s CreditNoteStatus) CanTransitionTo(next CreditNoteStatus) bool {
	for _, allowed := range creditNoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ParseCreditNoteStatus(str string) (CreditNoteStatus, error) {
	for i, name := range creditNoteStatusNames {
		if name == str {
			return CreditNoteStatus(i), nil
		}
	}
	return CreditNoteStatusActive, fmt.Errorf("unknown credit note status %q", str)
}

func (s CreditNoteStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *CreditNoteStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = CreditNoteStatus(i)
		return nil
	}
	parsed, err := ParseCreditNoteStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s CreditNoteStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *CreditNoteStatus) Scan(value interface{}) error {
	if value == nil {
		*s = CreditNoteStatusActive
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = CreditNoteStatus(v)
	case int:
		*s = CreditNoteStatus(v)
	}
	return nil
}
