package models

// Action is a state-changing operation on a trade.
type Action string

const (
	ActionFund          Action = "fund"
	ActionRelease       Action = "release"
	ActionRefund        Action = "refund"
	ActionDispute       Action = "dispute"
	ActionResolveSeller Action = "resolve-seller"
	ActionResolveBuyer  Action = "resolve-buyer"
)

// Effect is the asset movement a transition performs.
type Effect uint8

const (
	EffectNone Effect = iota
	// EffectLockFunds moves the trade amount from the buyer into custody.
	EffectLockFunds
	// EffectPayoutSeller moves the escrowed amount to the seller.
	EffectPayoutSeller
	// EffectRefundBuyer moves the escrowed amount back to the buyer.
	EffectRefundBuyer
)

// Rule is one row of the transition table.
type Rule struct {
	From   TradeStatus
	Action Action
	To     TradeStatus
	Effect Effect
}

type ruleKey struct {
	from   TradeStatus
	action Action
}

var transitions = map[ruleKey]Rule{}

func init() {
	for _, r := range []Rule{
		{CREATED, ActionFund, FUNDED, EffectLockFunds},
		{FUNDED, ActionRelease, RELEASED, EffectPayoutSeller},
		{FUNDED, ActionRefund, REFUNDED, EffectRefundBuyer},
		{CREATED, ActionDispute, DISPUTED, EffectNone},
		{FUNDED, ActionDispute, DISPUTED, EffectNone},
		{DISPUTED, ActionResolveSeller, RESOLVED, EffectPayoutSeller},
		{DISPUTED, ActionResolveBuyer, RESOLVED, EffectRefundBuyer},
	} {
		transitions[ruleKey{r.From, r.Action}] = r
	}
}

// Next looks up the rule for applying action in status. Every illegal
// transition is rejected here with InvalidState.
func Next(status TradeStatus, action Action) (Rule, error) {
	rule, ok := transitions[ruleKey{status, action}]
	if !ok {
		return Rule{}, Errorf(CodeInvalidState, "cannot %s a trade in status %s", action, status)
	}
	return rule, nil
}

// Rules returns a copy of the transition table.
func Rules() []Rule {
	out := make([]Rule, 0, len(transitions))
	for _, r := range transitions {
		out = append(out, r)
	}
	return out
}
