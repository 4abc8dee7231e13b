package game

// Notification types pushed to clients.
const (
	EventInit             = "init"
	EventTradeResult      = "tradeResult"
	EventError            = "error"
	EventJailed           = "jailed"
	EventReleased         = "released"
	EventInsiderTip       = "insiderTip"
	EventIndexFundStatus  = "indexFundStatus"
	EventBusinessBought   = "businessBought"
	EventRealEstateBought = "realEstateBought"
	EventPremiumStatus    = "premiumStatus"
	EventStocksUpdate     = "stocksUpdate"
	EventPlayersUpdate    = "playersUpdate"
)

type Notification struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type MessageData struct {
	Message string `json:"message"`
}

// Notifier delivers notifications to connected sessions. Implementations
// must not block on slow clients.
type Notifier interface {
	Notify(playerID string, n Notification)
	Broadcast(n Notification)
}

type NopNotifier struct{}

func (NopNotifier) Notify(string, Notification) {}
func (NopNotifier) Broadcast(Notification)      {}

type pending struct {
	playerID string
	n        Notification
}

type outbox []pending

func (o *outbox) add(playerID, typ string, data any) {
	*o = append(*o, pending{playerID: playerID, n: Notification{Type: typ, Data: data}})
}

func (o outbox) flush(n Notifier) {
	for _, p := range o {
		n.Notify(p.playerID, p.n)
	}
}
