package types

// Tag is a label that can be attached to referendums.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TagCreate is the payload for POST /tags/.
type TagCreate struct {
	Name string `json:"name"`
}

// ReferendumTag links a tag to a referendum.
type ReferendumTag struct {
	ReferendumID int `json:"referendum_id"`
	TagID        int `json:"tag_id"`
}

// ReferendumTags is the response of GET /tags/referendum/{id}.
type ReferendumTags struct {
	ReferendumID int   `json:"referendum_id"`
	Tags         []Tag `json:"tags"`
}

// Names returns the tag names in server order.
func (rt ReferendumTags) Names() []string {
	names := make([]string, 0, len(rt.Tags))
	for _, t := range rt.Tags {
		names = append(names, t.Name)
	}
	return names
}
