package ast

// ExprType is the tag of a numeric expression.
type ExprType string

const (
	ExprConstant   ExprType = "constant"
	ExprVariable   ExprType = "variable"
	ExprCount      ExprType = "count"
	ExprAttribute  ExprType = "attribute"
	ExprLoreOf     ExprType = "lore_of"
	ExprHandSize   ExprType = "hand_size"
	ExprSum        ExprType = "sum"
	ExprDifference ExprType = "difference"
	ExprMultiply   ExprType = "multiply"
)

// Expr computes a number from the execution context.
type Expr struct {
	Type   ExprType `mapstructure:"type"`
	Value  int      `mapstructure:"value"`
	Name   string   `mapstructure:"name"`
	Filter *Filter  `mapstructure:"filter"`
	Target *Target  `mapstructure:"target"`
	Stat   string   `mapstructure:"stat"`
	Player string   `mapstructure:"player"`
	Args   []*Expr  `mapstructure:"args"`
}

// Const builds a constant expression.
func Const(n int) *Expr {
	return &Expr{Type: ExprConstant, Value: n}
}

// Var builds a variable expression.
func Var(name string) *Expr {
	return &Expr{Type: ExprVariable, Name: name}
}

var exprAliases = map[ExprType]ExprType{
	"const":         ExprConstant,
	"number":        ExprConstant,
	"var":           ExprVariable,
	"lore":          ExprLoreOf,
	"stat_of":       ExprAttribute,
	"cards_in_hand": ExprHandSize,
	"add":           ExprSum,
	"subtract":      ExprDifference,
	"times":         ExprMultiply,
}

func (x *Expr) normalize() error {
	if x == nil {
		return nil
	}
	if x.Type == "" {
		x.Type = ExprConstant
	}
	x.Type = ExprType(lower(string(x.Type)))
	if canonical, ok := exprAliases[x.Type]; ok {
		x.Type = canonical
	}
	x.Stat = lower(x.Stat)
	x.Player = lower(x.Player)
	if err := x.Target.normalize(); err != nil {
		return err
	}
	x.Filter.normalize()
	for _, arg := range x.Args {
		if err := arg.normalize(); err != nil {
			return err
		}
	}
	return nil
}

// ConditionType is the tag of a boolean condition.
type ConditionType string

const (
	CondAlways             ConditionType = "always"
	CondAnd                ConditionType = "and"
	CondOr                 ConditionType = "or"
	CondNot                ConditionType = "not"
	CondCountCompare       ConditionType = "count_compare"
	CondLoreCompare        ConditionType = "lore_compare"
	CondSelfExerted        ConditionType = "self_exerted"
	CondSelfDamaged        ConditionType = "self_damaged"
	CondSelfAtLocation     ConditionType = "self_at_location"
	CondTargetHasKeyword   ConditionType = "target_has_keyword"
	CondIsYourTurn         ConditionType = "is_your_turn"
	CondHandSizeCompare    ConditionType = "hand_size_compare"
	CondEventAmountCompare ConditionType = "event_amount_compare"
	CondPlayedThisTurn     ConditionType = "played_this_turn_compare"
	CondBanishedThisTurn   ConditionType = "banished_this_turn"
	CondVariableCompare    ConditionType = "variable_compare"
)

// Condition is a boolean test evaluated against state and context.
type Condition struct {
	Type       ConditionType `mapstructure:"type"`
	Conditions []*Condition  `mapstructure:"conditions"`
	Condition  *Condition    `mapstructure:"condition"`
	Filter     *Filter       `mapstructure:"filter"`
	Compare    *Compare      `mapstructure:"compare"`
	Player     string        `mapstructure:"player"`
	Keyword    string        `mapstructure:"keyword"`
	Target     *Target       `mapstructure:"target"`
	Name       string        `mapstructure:"name"`
}

var conditionAliases = map[ConditionType]ConditionType{
	"true":             CondAlways,
	"has_keyword":      CondTargetHasKeyword,
	"your_turn":        CondIsYourTurn,
	"self_is_exerted":  CondSelfExerted,
	"count":            CondCountCompare,
	"lore":             CondLoreCompare,
	"hand_size":        CondHandSizeCompare,
	"event_amount":     CondEventAmountCompare,
	"played_this_turn": CondPlayedThisTurn,
	"variable":         CondVariableCompare,
}

func (c *Condition) normalize() error {
	if c == nil {
		return nil
	}
	if c.Type == "" {
		return errMissingType("condition")
	}
	c.Type = ConditionType(lower(string(c.Type)))
	if canonical, ok := conditionAliases[c.Type]; ok {
		c.Type = canonical
	}
	c.Player = lower(c.Player)
	c.Keyword = lower(c.Keyword)
	c.Filter.normalize()
	if err := c.Target.normalize(); err != nil {
		return err
	}
	if err := c.Condition.normalize(); err != nil {
		return err
	}
	for _, sub := range c.Conditions {
		if err := sub.normalize(); err != nil {
			return err
		}
	}
	return nil
}
