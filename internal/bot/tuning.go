package bot

// Tuning holds the knobs of GoodBot.
type Tuning struct {
	// PredictBias is added to the expected trick count before rounding.
	// Negative values make the bot under-bid.
	PredictBias float64
	// SureWin is the win probability above which a card counts as a winner
	// when leading.
	SureWin float64
}

// DefaultTuning slightly under-bids.
var DefaultTuning = Tuning{
	PredictBias: -0.25,
	SureWin:     0.75,
}
