package types

type OrderAction string

type OrderType string

type PositionSide string

const (
	ActionBuy      OrderAction = "BUY"
	ActionSell     OrderAction = "SELL"
	ActionClose    OrderAction = "CLOSE"
	ActionCloseAll OrderAction = "CLOSE_ALL"

	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"

	SideLong  PositionSide = "LONG"
	SideShort PositionSide = "SHORT"
)

// Exit reason labels recorded on closed trades. Strategies may override the
// default with a free-form label on the intent.
const (
	ExitReasonStopLoss     = "STOP_LOSS"
	ExitReasonTakeProfit   = "TAKE_PROFIT"
	ExitReasonTrailingStop = "TRAILING_STOP"
	ExitReasonSignal       = "STRATEGY_SIGNAL"
)
