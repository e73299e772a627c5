// Package fixtures seeds in-memory backends with forum data, either from the built-in
// sample set or from a YAML file mapping table names to rows.
package fixtures

import (
	"fmt"
	"sort"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/entity/memstore"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Load reads a YAML fixture file into b. The file maps table names to lists of rows:
//
//	xf_user:
//	  - user_id: 1
//	    username: alice
func Load(path string, b *memstore.Backend) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read fixtures: %w", err)
	}

	settings := v.AllSettings()
	tables := make([]string, 0, len(settings))
	for table := range settings {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		list, err := cast.ToSliceE(settings[table])
		if err != nil {
			return fmt.Errorf("fixtures table %s: %w", table, err)
		}
		for i, item := range list {
			row, err := cast.ToStringMapE(item)
			if err != nil {
				return fmt.Errorf("fixtures table %s row %d: %w", table, i, err)
			}
			b.Insert(table, entity.Row(row))
		}
	}
	return nil
}

// Forum seeds b with two conversations between three users.
//
// Conversation 1 is open, started by alice (1) with bob (2) and carol (3, who left).
// Its first message carries one attachment with a thumbnail. Conversation 2 is closed,
// started by bob with alice, who deleted and ignored it.
func Forum(b *memstore.Backend) {
	b.Insert("xf_user",
		entity.Row{"user_id": 1, "username": "alice"},
		entity.Row{"user_id": 2, "username": "bob"},
		entity.Row{"user_id": 3, "username": "carol"},
	)

	b.Insert("xf_conversation_master",
		entity.Row{
			"conversation_id": 1, "title": "Weekend plans", "user_id": 1, "username": "alice",
			"start_date": 1000, "reply_count": 2, "last_message_date": 1200,
			"first_message_id": 10, "last_message_id": 12, "conversation_open": 1,
		},
		entity.Row{
			"conversation_id": 2, "title": "Old thread", "user_id": 2, "username": "bob",
			"start_date": 2000, "reply_count": 0, "last_message_date": 2000,
			"first_message_id": 20, "last_message_id": 20, "conversation_open": 0,
		},
	)

	b.Insert("xf_conversation_message",
		entity.Row{
			"message_id": 10, "conversation_id": 1, "user_id": 1, "username": "alice",
			"message_date": 1000, "message": "Hiking on Saturday?", "attach_count": 1,
		},
		entity.Row{
			"message_id": 11, "conversation_id": 1, "user_id": 2, "username": "bob",
			"message_date": 1100, "message": "Sure", "attach_count": 0,
		},
		entity.Row{
			"message_id": 12, "conversation_id": 1, "user_id": 3, "username": "carol",
			"message_date": 1200, "message": "Count me out", "attach_count": 0,
		},
		entity.Row{
			"message_id": 20, "conversation_id": 2, "user_id": 2, "username": "bob",
			"message_date": 2000, "message": "Anyone?", "attach_count": 0,
		},
	)

	b.Insert("xf_conversation_recipient",
		entity.Row{"conversation_id": 1, "user_id": 1, "recipient_state": "active", "last_read_date": 1100},
		entity.Row{"conversation_id": 1, "user_id": 2, "recipient_state": "active", "last_read_date": 1200},
		entity.Row{"conversation_id": 1, "user_id": 3, "recipient_state": "deleted", "last_read_date": 1200},
		entity.Row{"conversation_id": 2, "user_id": 1, "recipient_state": "deleted_ignored", "last_read_date": 0},
		entity.Row{"conversation_id": 2, "user_id": 2, "recipient_state": "active", "last_read_date": 2000},
	)

	b.Insert("xf_conversation_user",
		entity.Row{"conversation_id": 1, "owner_user_id": 1},
		entity.Row{"conversation_id": 1, "owner_user_id": 2},
		entity.Row{"conversation_id": 2, "owner_user_id": 2},
	)

	b.Insert("xf_attachment",
		entity.Row{
			"attachment_id": 100, "data_id": 500, "content_type": "conversation_message", "content_id": 10,
			"attach_date": 1000, "filename": "trail.jpg", "view_count": 7, "user_id": 1,
			"temp_hash": "abc", "has_thumbnail": true, "thumbnail_url": "http://localhost/data/100.jpg",
		},
	)

	b.Insert("xf_attachment_data",
		entity.Row{"data_id": 500, "width": 800, "height": 600, "thumbnail_width": 100, "thumbnail_height": 75},
	)
}
