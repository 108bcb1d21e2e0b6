package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentMode is the instrument a payment was made with
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "CASH"
	PaymentModeUPI          PaymentMode = "UPI"
	PaymentModeCard         PaymentMode = "CARD"
	PaymentModeCredit       PaymentMode = "CREDIT"
	PaymentModeBankTransfer PaymentMode = "BANK TRANSFER"
	PaymentModeCheque       PaymentMode = "CHEQUE"
	PaymentModeCreditNote   PaymentMode = "CREDIT_NOTE"
)

// PaymentModes lists the modes a cashier can choose. CREDIT_NOTE is only
// produced by applying a credit note.
var PaymentModes = []PaymentMode{
	PaymentModeCash,
	PaymentModeUPI,
	PaymentModeCard,
	PaymentModeCredit,
	PaymentModeBankTransfer,
	PaymentModeCheque,
}

func (m PaymentMode) String() string {
	return string(m)
}

// IsValid reports whether m is a known payment mode
func (m PaymentMode) IsValid() bool {
	if m == PaymentModeCreditNote {
		return true
	}
	for _, mode := range PaymentModes {
		if m == mode {
			return true
		}
	}
	return false
}

func (m PaymentMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(m))
}

func (m *PaymentMode) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*m = PaymentMode(str)
	return nil
}

func (m PaymentMode) Value() (driver.Value, error) {
	return string(m), nil
}

func (m *PaymentMode) Scan(value interface{}) error {
	if value == nil {
		*m = PaymentModeCash
		return nil
	}
	switch v := value.(type) {
	case string:
		*m = PaymentMode(v)
	case []byte:
		*m = PaymentMode(string(v))
	}
	return nil
}
