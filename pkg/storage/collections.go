package storage

import (
	"github.com/Gobusters/ectolinq"
)

// Kind is the logical type of a column
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindReal
	KindBool
	KindTime
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

type Column struct {
	Name string
	Kind Kind
}

// Collection describes one table (relational) or bucket (fallback)
type Collection struct {
	Name    string
	Columns []Column
	index   map[string]Kind
}

// NewCollection builds a collection. Every collection has id, created_at and
// updated_at columns; they are added when missing.
func NewCollection(name string, columns ...Column) *Collection {
	c := &Collection{Name: name, index: make(map[string]Kind)}
	c.add(Column{"id", KindText})
	for _, col := range columns {
		c.add(col)
	}
	c.add(Column{"created_at", KindTime})
	c.add(Column{"updated_at", KindTime})
	return c
}

func (c *Collection) add(col Column) {
	if _, ok := c.index[col.Name]; ok {
		return
	}
	c.index[col.Name] = col.Kind
	c.Columns = append(c.Columns, col)
}

// Kind returns the kind of a column and whether the column exists
func (c *Collection) Kind(column string) (Kind, bool) {
	k, ok := c.index[column]
	return k, ok
}

func (c *Collection) ColumnNames() []string {
	return ectolinq.Map(c.Columns, func(col Column) string { return col.Name })
}

var (
	Integrations = NewCollection("integrations",
		Column{"name", KindText},
		Column{"type", KindText},
		Column{"status", KindText},
		Column{"configuration", KindJSON},
		Column{"last_sync", KindTime},
		Column{"metadata", KindJSON},
	)

	SocialMediaPages = NewCollection("social_media_pages",
		Column{"integration_id", KindText},
		Column{"platform", KindText},
		Column{"page_id", KindText},
		Column{"page_name", KindText},
		Column{"username", KindText},
		Column{"profile_picture", KindText},
		Column{"is_connected", KindBool},
		Column{"is_verified", KindBool},
		Column{"followers", KindInt},
		Column{"posts", KindInt},
		Column{"engagement", KindReal},
		Column{"last_activity", KindTime},
	)

	SocialMediaPosts = NewCollection("social_media_posts",
		Column{"page_id", KindText},
		Column{"platform", KindText},
		Column{"post_id", KindText},
		Column{"type", KindText},
		Column{"content", KindText},
		Column{"media_urls", KindJSON},
		Column{"hashtags", KindJSON},
		Column{"metrics", KindJSON},
		Column{"published_at", KindTime},
		Column{"is_active", KindBool},
	)

	SocialMediaCampaigns = NewCollection("social_media_campaigns",
		Column{"integration_id", KindText},
		Column{"page_id", KindText},
		Column{"platform", KindText},
		Column{"campaign_id", KindText},
		Column{"name", KindText},
		Column{"objective", KindText},
		Column{"status", KindText},
		Column{"budget", KindJSON},
		Column{"metrics", KindJSON},
		Column{"start_date", KindTime},
		Column{"end_date", KindTime},
	)
)

// Collections lists every collection the store seeds and migrates
func Collections() []*Collection {
	return []*Collection{Integrations, SocialMediaPages, SocialMediaPosts, SocialMediaCampaigns}
}
