package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CreditNoteReason explains why goods or value were returned
type CreditNoteReason string

const (
	CreditNoteReasonReturn          CreditNoteReason = "RETURN"
	CreditNoteReasonDamage          CreditNoteReason = "DAMAGE"
	CreditNoteReasonPriceAdjustment CreditNoteReason = "PRICE_ADJUSTMENT"
	CreditNoteReasonOther           CreditNoteReason = "OTHER"
)

var CreditNoteReasons = []CreditNoteReason{
	CreditNoteReasonReturn,
	CreditNoteReasonDamage,
	CreditNoteReasonPriceAdjustment,
	CreditNoteReasonOther,
}

// ParseCreditNoteReason rejects anything outside the closed reason set
func ParseCreditNoteReason(s string) (CreditNoteReason, error) {
	for _, r := range CreditNoteReasons {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown credit note reason %q", s)
}

func (r CreditNoteReason) String() string {
	return string(r)
}

func (r CreditNoteReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}

func (r *CreditNoteReason) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*r = CreditNoteReason(str)
	return nil
}

func (r CreditNoteReason) Value() (driver.Value, error) {
	return string(r), nil
}

func (r *CreditNoteReason) Scan(value interface{}) error {
	if value == nil {
		*r = CreditNoteReasonOther
		return nil
	}
	switch v := value.(type) {
	case string:
		*r = CreditNoteReason(v)
	case []byte:
		*r = CreditNoteReason(string(v))
	}
	return nil
}
