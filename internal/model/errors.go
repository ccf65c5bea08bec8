package model

import "fmt"

// InsufficientDataError means the candle sequence is shorter than the minimum
// window a computation needs. The caller must supply more history.
type InsufficientDataError struct {
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient candle data: need %d, got %d", e.Need, e.Got)
}

// InvalidEntryError means the resolved entry price is not a positive finite
// number. The caller must supply a valid override or a sane current price.
type InvalidEntryError struct {
	Price float64
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid entry price: %v", e.Price)
}
