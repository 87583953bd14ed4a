package classify

import (
	"strings"

	"github.com/renaobrien/elutio/internal/domain"
)

// Classifier assigns a classification from price, liquidity and naming data.
// It holds no mutable state; Classify is deterministic for equal inputs.
type Classifier struct {
	policy   Policy
	core     map[string]struct{}
	keywords []string
}

// New creates a Classifier for the given policy.
func New(p Policy) *Classifier {
	c := &Classifier{
		policy: p,
		core:   make(map[string]struct{}, len(p.CoreSymbols)),
	}
	for _, s := range p.CoreSymbols {
		c.core[strings.ToUpper(s)] = struct{}{}
	}
	for _, k := range p.UnsafeKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			c.keywords = append(c.keywords, k)
		}
	}
	return c
}

// Policy returns the policy the classifier was built with.
func (c *Classifier) Policy() Policy {
	return c.policy
}

// Classify applies the rules in order; the first match wins.
// liquidityUSD is nil when no liquidity figure is known.
func (c *Classifier) Classify(usdValue float64, symbol, name string, priceKnown bool, liquidityUSD *float64) domain.Classification {
	if c.IsSuspicious(symbol, name) {
		return domain.ClassificationUnsafe
	}

	if priceKnown && liquidityUSD != nil && *liquidityUSD > 0 && *liquidityUSD < c.policy.LiquidityFloorUSD {
		return domain.ClassificationUnsafe
	}

	if _, ok := c.core[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return domain.ClassificationCore
	}

	// Unpriced holdings stay recoverable until there is evidence either way.
	if !priceKnown {
		return domain.ClassificationRecoverable
	}

	switch {
	case usdValue >= c.policy.CoreThresholdUSD:
		return domain.ClassificationCore
	case usdValue < c.policy.DustThresholdUSD:
		return domain.ClassificationDust
	default:
		return domain.ClassificationRecoverable
	}
}

// ClassifyToken classifies t in place and returns the label.
func (c *Classifier) ClassifyToken(t *domain.PricedToken) domain.Classification {
	t.Classification = c.Classify(t.BalanceUSD, t.Symbol, t.Name, t.PriceKnown, t.LiquidityUSD)
	return t.Classification
}

// IsSuspicious reports whether symbol or name contains a blacklisted substring.
func (c *Classifier) IsSuspicious(symbol, name string) bool {
	text := strings.ToLower(symbol + " " + name)
	for _, k := range c.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
