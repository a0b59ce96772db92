package economy

// FeeSchedule holds fallback fee rates, each a fraction of the amount
// moved. Cities that set their own tax rates take precedence; these rates
// back any city seeded without them.
type FeeSchedule struct {
	Trade    float64 `json:"trade"`
	Withdraw float64 `json:"withdraw"`
	Storage  float64 `json:"storage"`
}

// DefaultFeeSchedule returns the stock rates.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Trade:    0.003,
		Withdraw: 0.001,
		Storage:  0.0005,
	}
}

// TradeFee prices a trade of the given size.
func (f FeeSchedule) TradeFee(amount float64) float64 {
	return amount * f.Trade
}

// WithdrawFee prices a credit withdrawal of the given size.
func (f FeeSchedule) WithdrawFee(amount float64) float64 {
	return amount * f.Withdraw
}

// StorageFee prices storing goods of the given value.
func (f FeeSchedule) StorageFee(amount float64) float64 {
	return amount * f.Storage
}

// FeeSummary itemizes the fees on a set of movements.
type FeeSummary struct {
	TradeFee    float64 `json:"trade_fee"`
	WithdrawFee float64 `json:"withdrawal_fee"`
	StorageFee  float64 `json:"storage_fee"`
	TotalFee    float64 `json:"total_fee"`
}

// Summarize prices a trade, a withdrawal, and a storage movement together.
func (f FeeSchedule) Summarize(tradeAmount, withdrawAmount, storageAmount float64) FeeSummary {
	s := FeeSummary{
		TradeFee:    f.TradeFee(tradeAmount),
		WithdrawFee: f.WithdrawFee(withdrawAmount),
		StorageFee:  f.StorageFee(storageAmount),
	}
	s.TotalFee = s.TradeFee + s.WithdrawFee + s.StorageFee
	return s
}
