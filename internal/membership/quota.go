package membership

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Limit is a weekly booking cap. Unlimited means no cap applies.
type Limit int

const Unlimited Limit = -1

func (l Limit) IsUnlimited() bool {
	return l < 0
}

func (l Limit) String() string {
	if l.IsUnlimited() {
		return "unlimited"
	}
	return strconv.Itoa(int(l))
}

// UnmarshalYAML accepts a non-negative integer or the word "unlimited".
func (l *Limit) UnmarshalYAML(node *yaml.Node) error {
	raw := strings.TrimSpace(node.Value)
	if strings.EqualFold(raw, "unlimited") {
		*l = Unlimited
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fmt.Errorf("line %d: limit must be a non-negative integer or \"unlimited\", got %q", node.Line, raw)
	}
	*l = Limit(n)
	return nil
}

// QuotaTable maps each tier to its weekly booking cap.
type QuotaTable map[Tier]Limit

// DefaultQuotas returns the built-in quota table.
func DefaultQuotas() QuotaTable {
	return QuotaTable{
		TierAdHoc:          Unlimited,
		TierOnceAWeek:      1,
		TierTwiceAWeek:     2,
		TierThreePlusAWeek: Unlimited,
	}
}

// LimitFor returns the cap for t.
func (q QuotaTable) LimitFor(t Tier) (Limit, error) {
	l, ok := q[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return l, nil
}

type quotaFile struct {
	Tiers map[string]Limit `yaml:"tiers"`
}

// ParseQuotas decodes a YAML quota document and merges it over the defaults.
//
//	tiers:
//	  once-a-week: 1
//	  three-plus-a-week: unlimited
func ParseQuotas(data []byte) (QuotaTable, error) {
	var f quotaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode quota file: %w", err)
	}

	table := DefaultQuotas()
	for name, limit := range f.Tiers {
		t, err := ParseTier(name)
		if err != nil {
			return nil, err
		}
		table[t] = limit
	}
	return table, nil
}

// LoadQuotaFile reads the quota table at path. An empty path yields the defaults.
func LoadQuotaFile(path string) (QuotaTable, error) {
	if path == "" {
		return DefaultQuotas(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quota file: %w", err)
	}
	return ParseQuotas(data)
}
