package guildconfig

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"golang.org/x/text/currency"
)

// Patch is a validated partial update. A nil field is left untouched.
type Patch struct {
	Name             *string
	Icon             *string
	AdminRoleID      *string
	PaymentText      *string
	ListingChannelID *string
	OrdersChannelID  *string
	SplitsChannelID  *string
	OpsChannelID     *string
	CategoryID       *string

	Enabled             *bool
	Prefix              *string
	GroupBuyChannelID   *string
	LogChannelID        *string
	ManagerRoleID       *string
	MinParticipants     *int
	DefaultCurrency     *string
	IsMainServer        *bool
	IsBackupServer      *bool
	DefaultCategoryID   *string
	DefaultLogChannelID *string
	AllowedRoleIDs      *[]string

	SetupStage *SetupStage
}

type fieldParser func(p *Patch, v any) bool

// whitelist maps accepted JSON keys to their validating setter. Keys not in
// the map are ignored.
var whitelist = map[string]fieldParser{
	"name":             textField(func(p *Patch) **string { return &p.Name }),
	"icon":             textField(func(p *Patch) **string { return &p.Icon }),
	"adminRoleId":      textField(func(p *Patch) **string { return &p.AdminRoleID }),
	"paymentText":      textField(func(p *Patch) **string { return &p.PaymentText }),
	"listingChannelId": textField(func(p *Patch) **string { return &p.ListingChannelID }),
	// spelling used by older panel builds
	"listingsChannelId": textField(func(p *Patch) **string { return &p.ListingChannelID }),
	"ordersChannelId":   textField(func(p *Patch) **string { return &p.OrdersChannelID }),
	"splitsChannelId":   textField(func(p *Patch) **string { return &p.SplitsChannelID }),
	"opsChannelId":      textField(func(p *Patch) **string { return &p.OpsChannelID }),
	"categoryId":        textField(func(p *Patch) **string { return &p.CategoryID }),

	"enabled":             boolField(func(p *Patch) **bool { return &p.Enabled }),
	"prefix":              parsePrefix,
	"groupBuyChannelId":   textField(func(p *Patch) **string { return &p.GroupBuyChannelID }),
	"logChannelId":        textField(func(p *Patch) **string { return &p.LogChannelID }),
	"managerRoleId":       textField(func(p *Patch) **string { return &p.ManagerRoleID }),
	"minParticipants":     parseMinParticipants,
	"defaultCurrency":     parseCurrency,
	"isMainServer":        boolField(func(p *Patch) **bool { return &p.IsMainServer }),
	"isBackupServer":      boolField(func(p *Patch) **bool { return &p.IsBackupServer }),
	"defaultCategoryId":   textField(func(p *Patch) **string { return &p.DefaultCategoryID }),
	"defaultLogChannelId": textField(func(p *Patch) **string { return &p.DefaultLogChannelID }),
	"allowedRoleIds":      parseRoleIDs,
}

// seedKeys are the fields a read request may supply for a new document.
var seedKeys = []string{"name", "icon"}

// ParsePatch keeps the whitelisted keys of input whose values have the
// expected type and range. Everything else is dropped silently.
func ParsePatch(input map[string]any) Patch {
	var p Patch
	for k, v := range input {
		if parse, ok := whitelist[k]; ok {
			parse(&p, v)
		}
	}
	return p
}

// ParseSeed is ParsePatch restricted to the read-time seed fields.
func ParseSeed(input map[string]any) Patch {
	seed := make(map[string]any, len(seedKeys))
	for _, k := range seedKeys {
		if v, ok := input[k]; ok {
			seed[k] = v
		}
	}
	return ParsePatch(seed)
}

func textField(target func(*Patch) **string) fieldParser {
	return func(p *Patch, v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		s = strings.TrimSpace(s)
		*target(p) = &s
		return true
	}
}

func boolField(target func(*Patch) **bool) fieldParser {
	return func(p *Patch, v any) bool {
		b, ok := v.(bool)
		if !ok {
			return false
		}
		*target(p) = &b
		return true
	}
}

func parsePrefix(p *Patch, v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	p.Prefix = &s
	return true
}

// parseMinParticipants accepts finite numbers, truncated toward zero, that
// are at least 1.
func parseMinParticipants(p *Patch, v any) bool {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return false
		}
		f = parsed
	default:
		return false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	f = math.Trunc(f)
	if f < 1 || f > math.MaxInt32 {
		return false
	}
	n := int(f)
	p.MinParticipants = &n
	return true
}

func parseCurrency(p *Patch, v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	unit, err := currency.ParseISO(s)
	if err != nil {
		return false
	}
	code := unit.String()
	p.DefaultCurrency = &code
	return true
}

func parseRoleIDs(p *Patch, v any) bool {
	items, ok := v.([]any)
	if !ok {
		return false
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return false
		}
		if s = strings.TrimSpace(s); s != "" {
			ids = append(ids, s)
		}
	}
	p.AllowedRoleIDs = &ids
	return true
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.Columns()) == 0
}

// Apply copies the set fields of p onto c.
func (p Patch) Apply(c *Config) {
	setString(&c.Name, p.Name)
	setString(&c.Icon, p.Icon)
	setString(&c.AdminRoleID, p.AdminRoleID)
	setString(&c.PaymentText, p.PaymentText)
	setString(&c.ListingChannelID, p.ListingChannelID)
	setString(&c.OrdersChannelID, p.OrdersChannelID)
	setString(&c.SplitsChannelID, p.SplitsChannelID)
	setString(&c.OpsChannelID, p.OpsChannelID)
	setString(&c.CategoryID, p.CategoryID)

	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	setString(&c.Prefix, p.Prefix)
	setString(&c.GroupBuyChannelID, p.GroupBuyChannelID)
	setString(&c.LogChannelID, p.LogChannelID)
	setString(&c.ManagerRoleID, p.ManagerRoleID)
	if p.MinParticipants != nil {
		c.MinParticipants = *p.MinParticipants
	}
	setString(&c.DefaultCurrency, p.DefaultCurrency)
	if p.IsMainServer != nil {
		c.IsMainServer = *p.IsMainServer
	}
	if p.IsBackupServer != nil {
		c.IsBackupServer = *p.IsBackupServer
	}
	setString(&c.DefaultCategoryID, p.DefaultCategoryID)
	setString(&c.DefaultLogChannelID, p.DefaultLogChannelID)
	if p.AllowedRoleIDs != nil {
		c.AllowedRoleIDs = append([]string{}, (*p.AllowedRoleIDs)...)
	}
	if p.SetupStage != nil {
		c.SetupStage = *p.SetupStage
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Upsert is the single write primitive stores implement: OnInsert is the
// full document written when GuildID is absent, Set is applied in both cases.
type Upsert struct {
	GuildID  string
	OnInsert Config
	Set      Patch
	// Customize marks the document as explicitly configured.
	Customize bool
	Now       time.Time
}

// Document returns the document an insert would produce.
func (u Upsert) Document() Config {
	doc := u.OnInsert
	doc.GuildID = u.GuildID
	u.Set.Apply(&doc)
	doc.Customized = doc.Customized || u.Customize
	doc.CreatedAt = u.Now
	doc.UpdatedAt = u.Now
	return doc
}

// Merge applies the update to an existing document.
func (u Upsert) Merge(existing Config) Config {
	if u.Set.Empty() && !u.Customize {
		return existing
	}
	u.Set.Apply(&existing)
	existing.Customized = existing.Customized || u.Customize
	existing.UpdatedAt = u.Now
	return existing
}

// SetColumns returns the columns written on both insert and update.
func (u Upsert) SetColumns() map[string]any {
	cols := u.Set.Columns()
	if u.Customize {
		cols[ColCustomized] = true
	}
	return cols
}
