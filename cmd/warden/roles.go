package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/bluesky-social/chatmod/automod/setstore"
)

// Adds every member listed in a JSON roles file (set name to list of user IDs) to a shared set store. Existing members are kept.
func loadRolesJSON(ctx context.Context, sets setstore.SetStore, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var roles map[string][]string
	if err := json.Unmarshal(raw, &roles); err != nil {
		return err
	}
	for name, members := range roles {
		for _, m := range members {
			if err := sets.Add(ctx, name, m); err != nil {
				return err
			}
		}
	}
	return nil
}
