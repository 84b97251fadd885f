package screens

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/types"
)

// ParseTags splits comma-separated input into trimmed, non-empty names,
// dropping case-insensitive duplicates.
func ParseTags(input string) []string {
	seen := map[string]bool{}
	var names []string
	for _, part := range strings.Split(input, ",") {
		name := strings.TrimSpace(part)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// TagSync reports what ReplaceTags did.
type TagSync struct {
	Added   []string
	Removed []string
	Kept    []string
	// Skipped holds removals that failed and were left in place.
	Skipped []error
}

// ReplaceTags makes the referendum's tags exactly names. Tags no longer
// wanted are detached first; a failed detach is logged and skipped. Missing
// tags are attached, reusing an existing tag of the same name (ignoring
// case) before creating one. Attach and create failures stop the sync.
// Tag creation and attachment are separate calls, so a failure can leave a
// created but unattached tag behind.
func ReplaceTags(ctx context.Context, api *apiclient.Client, logger *slog.Logger, referendumID int, names []string) (TagSync, error) {
	var result TagSync

	current, err := api.ReferendumTags(ctx, referendumID)
	if err != nil {
		return result, fmt.Errorf("fetch referendum tags: %w", err)
	}

	wanted := make(map[string]string, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = n
	}

	attached := make(map[string]bool, len(current.Tags))
	for _, tag := range current.Tags {
		key := strings.ToLower(tag.Name)
		if _, keep := wanted[key]; keep {
			attached[key] = true
			result.Kept = append(result.Kept, tag.Name)
			continue
		}
		if err := api.RemoveTagFromReferendum(ctx, referendumID, tag.ID); err != nil {
			logger.Warn("failed to remove tag from referendum",
				"referendum_id", referendumID,
				"tag_id", tag.ID,
				"tag", tag.Name,
				"error", err,
			)
			result.Skipped = append(result.Skipped, fmt.Errorf("remove tag %q: %w", tag.Name, err))
			continue
		}
		result.Removed = append(result.Removed, tag.Name)
	}

	var all []types.Tag
	loaded := false
	for _, name := range names {
		if attached[strings.ToLower(name)] {
			continue
		}

		if !loaded {
			all, err = api.ListTags(ctx)
			if err != nil {
				return result, fmt.Errorf("list tags: %w", err)
			}
			loaded = true
		}

		tagID := 0
		for _, t := range all {
			if strings.EqualFold(t.Name, name) {
				tagID = t.ID
				break
			}
		}
		if tagID == 0 {
			created, err := api.CreateTag(ctx, name)
			if err != nil {
				return result, fmt.Errorf("create tag %q: %w", name, err)
			}
			all = append(all, created)
			tagID = created.ID
		}

		if err := api.AddTagToReferendum(ctx, referendumID, tagID); err != nil {
			return result, fmt.Errorf("add tag %q: %w", name, err)
		}
		attached[strings.ToLower(name)] = true
		result.Added = append(result.Added, name)
	}

	return result, nil
}
