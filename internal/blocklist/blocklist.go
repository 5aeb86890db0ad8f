// Package blocklist holds parsed exclusion rules and tests scan targets
// against them. Rules come in three variants: "ip:" CIDR networks (a bare
// address is a single-host network), "host:" exact hostnames and "regex:"
// patterns matched against the full URL with starts-with semantics. Rules
// live in a backing store (database table or flat file) and are cached in
// memory as three sets.
package blocklist

import (
	"net/netip"
	"regexp"
	"sort"
	"strings"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/arkid15r/utiso-dorkbot/internal/models"
	"github.com/rs/zerolog"
)

// ItemStore persists blocklist items in their canonical text form. It is
// satisfied by datastore.BlocklistStore and by the flat-file store.
type ItemStore interface {
	ReadItems() ([]string, error)
	AddItem(item string) error
	DeleteItem(item string) error
	Flush() error
	Close() error
}

// Blocklist is the in-memory view of one exclusion list.
type Blocklist struct {
	store  ItemStore
	logger zerolog.Logger

	ipNets   map[netip.Prefix]struct{}
	hosts    map[string]struct{}
	patterns map[string]struct{}
	regex    *regexp.Regexp
}

// New loads all items from the backing store. Malformed items are reported
// as warnings and skipped; a malformed item is only a hard error through
// Add.
func New(store ItemStore, logger zerolog.Logger) (*Blocklist, error) {
	bl := &Blocklist{
		store:    store,
		logger:   logger.With().Str("component", "Blocklist").Logger(),
		ipNets:   make(map[netip.Prefix]struct{}),
		hosts:    make(map[string]struct{}),
		patterns: make(map[string]struct{}),
	}

	items, err := store.ReadItems()
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := bl.parseItem(item); err != nil {
			bl.logger.Warn().Err(err).Str("item", item).Msg("Could not parse blocklist item")
		}
	}
	if err := bl.recompile(); err != nil {
		return nil, err
	}

	return bl, nil
}

// Close releases the backing store.
func (b *Blocklist) Close() error {
	return b.store.Close()
}

func (b *Blocklist) parseItem(item string) error {
	kind, value, found := strings.Cut(item, ":")
	if !found {
		return common.NewError("blocklist item '%s' has no recognized prefix: %w", item, common.ErrInvalidInput)
	}

	switch kind {
	case "ip":
		prefix, err := parseNetwork(value)
		if err != nil {
			return common.WrapErrorf(err, "could not parse blocklist item '%s' as ip", item)
		}
		b.ipNets[prefix] = struct{}{}
	case "host":
		b.hosts[value] = struct{}{}
	case "regex":
		if _, err := regexp.Compile(value); err != nil {
			return common.WrapErrorf(err, "could not compile blocklist item '%s'", item)
		}
		b.patterns[value] = struct{}{}
	default:
		return common.NewError("blocklist item '%s' has no recognized prefix: %w", item, common.ErrInvalidInput)
	}

	return nil
}

// parseNetwork accepts a CIDR network or a single address, normalizing the
// latter to a /32 (or /128) network.
func parseNetwork(value string) (netip.Prefix, error) {
	if strings.Contains(value, "/") {
		return netip.ParsePrefix(value)
	}
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// recompile rebuilds the single alternation pattern covering every regex
// rule. Mutation is not a hot path, so a full rebuild per change is fine.
func (b *Blocklist) recompile() error {
	if len(b.patterns) == 0 {
		b.regex = nil
		return nil
	}

	patterns := make([]string, 0, len(b.patterns))
	for pattern := range b.patterns {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	combined, err := regexp.Compile("^(?:" + strings.Join(patterns, "|") + ")")
	if err != nil {
		return common.WrapError(err, "failed to compile blocklist regex set")
	}
	b.regex = combined
	return nil
}

// Match reports whether the target is excluded: its URL matches the
// compiled regex set from the start, its host is exactly a listed
// hostname, or its resolved IP falls inside a listed network. A target
// without a resolved IP simply fails the network test.
func (b *Blocklist) Match(target *models.Target) bool {
	if b.regex != nil && b.regex.MatchString(target.URL) {
		return true
	}

	if _, ok := b.hosts[target.Host]; ok {
		return true
	}

	if target.HasIP() {
		for prefix := range b.ipNets {
			if prefix.Contains(target.IP) {
				return true
			}
		}
	}

	return false
}

// Add parses one item strictly, caches it and persists it. Unlike bulk
// loading, an unparseable item here is an error.
func (b *Blocklist) Add(item string) error {
	if err := b.parseItem(item); err != nil {
		return err
	}
	if err := b.recompile(); err != nil {
		return err
	}
	return b.store.AddItem(item)
}

// Delete removes one item from the cache and the backing store.
func (b *Blocklist) Delete(item string) error {
	kind, value, found := strings.Cut(item, ":")
	if found {
		switch kind {
		case "ip":
			if prefix, err := parseNetwork(value); err == nil {
				delete(b.ipNets, prefix)
			}
		case "host":
			delete(b.hosts, value)
		case "regex":
			delete(b.patterns, value)
			if err := b.recompile(); err != nil {
				return err
			}
		}
	}
	return b.store.DeleteItem(item)
}

// Flush empties the backing store and the in-memory sets.
func (b *Blocklist) Flush() error {
	b.logger.Info().Msg("Flushing blocklist")
	if err := b.store.Flush(); err != nil {
		return err
	}
	b.ipNets = make(map[netip.Prefix]struct{})
	b.hosts = make(map[string]struct{})
	b.patterns = make(map[string]struct{})
	b.regex = nil
	return nil
}

// List returns every rule in canonical text form. Single-host networks
// print as a bare address without the mask.
func (b *Blocklist) List() []string {
	var items []string
	for prefix := range b.ipNets {
		if prefix.IsSingleIP() {
			items = append(items, "ip:"+prefix.Addr().String())
			continue
		}
		items = append(items, "ip:"+prefix.String())
	}

	var hosts, patterns []string
	for host := range b.hosts {
		hosts = append(hosts, "host:"+host)
	}
	for pattern := range b.patterns {
		patterns = append(patterns, "regex:"+pattern)
	}

	sort.Strings(items)
	sort.Strings(hosts)
	sort.Strings(patterns)
	items = append(items, hosts...)
	items = append(items, patterns...)

	return items
}
