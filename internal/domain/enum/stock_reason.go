package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// StockReason tags a stock movement with its cause
type StockReason string

const (
	StockReasonSale        StockReason = "SALE"
	StockReasonCancelled   StockReason = "CANCELLED"
	StockReasonReturn      StockReason = "RETURN"
	StockReasonCNCancelled StockReason = "CN_CANCELLED"
	StockReasonAdjustment  StockReason = "ADJUSTMENT"
	StockReasonPurchase    StockReason = "PURCHASE"
	StockReasonOpening     StockReason = "OPENING"
)

func (r StockReason) String() string {
	return string(r)
}

func (r StockReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}

func (r *StockReason) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*r = StockReason(str)
	return nil
}

func (r StockReason) Value() (driver.Value, error) {
	return string(r), nil
}

func (r *StockReason) Scan(value interface{}) error {
	if value == nil {
		*r = StockReasonAdjustment
		return nil
	}
	switch v := value.(type) {
	case string:
		*r = StockReason(v)
	case []byte:
		*r = StockReason(string(v))
	}
	return nil
}
