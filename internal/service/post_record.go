package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/inklog/internal/db"
)

// ErrInvalidPubDate reports pubdate text no known layout could parse.
var ErrInvalidPubDate = errors.New("unparseable pubdate")

// Staged field names. These double as the suffix of the update_post_<name>
// notification raised when the field's value changes on save.
const (
	fieldSlug        = "slug"
	fieldTitle       = "title"
	fieldContent     = "content"
	fieldGUID        = "guid"
	fieldUserID      = "user_id"
	fieldStatus      = "status"
	fieldContentType = "content_type"
	fieldPubDate     = "pubdate"
)

// changeset holds staged field values separately from the persisted
// snapshot. Nothing in it touches the store until the owning save applies
// it.
type changeset struct {
	fields map[string]any
}

func newChangeset() *changeset {
	return &changeset{fields: make(map[string]any)}
}

func (c *changeset) set(name string, value any) {
	c.fields[name] = value
}

func (c *changeset) remove(name string) {
	delete(c.fields, name)
}

func (c *changeset) clear() {
	c.fields = make(map[string]any)
}

func (c *changeset) names() []string {
	names := make([]string, 0, len(c.fields))
	for name := range c.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *changeset) stringVal(name string) (string, bool) {
	v, ok := c.fields[name].(string)
	return v, ok
}

func (c *changeset) intVal(name string) (int, bool) {
	v, ok := c.fields[name].(int)
	return v, ok
}

func (c *changeset) uintVal(name string) (uint, bool) {
	v, ok := c.fields[name].(uint)
	return v, ok
}

func (c *changeset) timeVal(name string) (time.Time, bool) {
	v, ok := c.fields[name].(time.Time)
	return v, ok
}

// Post is the record aggregate. It carries the persisted snapshot, a
// changeset of staged edits, and lazily loaded collaborator state (tags,
// comments, author, sidecar info). All store writes go through Insert,
// Update and Delete.
type Post struct {
	svc    *PostService
	record db.Post
	staged *changeset

	stagedTags []string
	tagsStaged bool
	tagsCache  []string
	tagsLoaded bool

	comments       []db.Comment
	commentsLoaded bool
	author         *db.User
	info           *InfoStore
}

// ID returns the store-assigned id, zero for a record not yet inserted.
func (p *Post) ID() uint { return p.record.ID }

// Slug returns the persisted slug. Staged slug edits only take effect
// through allocation on save.
func (p *Post) Slug() string { return p.record.Slug }

// GUID returns the persisted guid; it is minted at insert and immutable.
func (p *Post) GUID() string { return p.record.GUID }

// Title returns the staged title when one is pending, else the snapshot.
func (p *Post) Title() string {
	if v, ok := p.staged.stringVal(fieldTitle); ok {
		return v
	}
	return p.record.Title
}

// Content returns the staged content when one is pending, else the
// snapshot.
func (p *Post) Content() string {
	if v, ok := p.staged.stringVal(fieldContent); ok {
		return v
	}
	return p.record.Content
}

// CachedContent returns the persisted rendered content.
func (p *Post) CachedContent() string { return p.record.CachedContent }

// UserID returns the staged author id when one is pending, else the
// snapshot.
func (p *Post) UserID() uint {
	if v, ok := p.staged.uintVal(fieldUserID); ok {
		return v
	}
	return p.record.UserID
}

// StatusCode returns the staged status code when one is pending, else the
// snapshot.
func (p *Post) StatusCode() int {
	if v, ok := p.staged.intVal(fieldStatus); ok {
		return v
	}
	return p.record.Status
}

// TypeCode returns the staged content-type code when one is pending, else
// the snapshot.
func (p *Post) TypeCode() int {
	if v, ok := p.staged.intVal(fieldContentType); ok {
		return v
	}
	return p.record.ContentType
}

// PubDate returns the staged publication time when one is pending, else the
// snapshot.
func (p *Post) PubDate() time.Time {
	if v, ok := p.staged.timeVal(fieldPubDate); ok {
		return v
	}
	return p.record.PubDate
}

// Updated returns the time of the last persisted write.
func (p *Post) Updated() time.Time { return p.record.UpdatedAt }

// SetTitle stages a new title.
func (p *Post) SetTitle(title string) { p.staged.set(fieldTitle, title) }

// SetContent stages new markdown content.
func (p *Post) SetContent(content string) { p.staged.set(fieldContent, content) }

// SetSlug stages an explicit slug. The allocator still disambiguates it on
// save.
func (p *Post) SetSlug(slug string) { p.staged.set(fieldSlug, slug) }

// SetUserID stages a new author reference.
func (p *Post) SetUserID(id uint) { p.staged.set(fieldUserID, id) }

// SetStatusCode stages a status by numeric code. The code must belong to
// the status vocabulary.
func (p *Post) SetStatusCode(code int) error {
	if !p.svc.vocab.HasStatusCode(code) {
		return ErrStatusNotFound
	}
	p.staged.set(fieldStatus, code)
	return nil
}

// SetStatusName stages a status by name, resolved case-insensitively to
// the name's own code. Unknown names leave the current status unchanged
// and report ErrStatusNotFound.
func (p *Post) SetStatusName(name string) error {
	code, err := p.svc.vocab.StatusCode(name)
	if err != nil {
		return err
	}
	p.staged.set(fieldStatus, code)
	return nil
}

// SetTypeCode stages a content type by numeric code.
func (p *Post) SetTypeCode(code int) error {
	if !p.svc.vocab.HasTypeCode(code) {
		return ErrTypeNotFound
	}
	p.staged.set(fieldContentType, code)
	return nil
}

// SetTypeName stages a content type by name.
func (p *Post) SetTypeName(name string) error {
	code, err := p.svc.vocab.TypeCode(name)
	if err != nil {
		return err
	}
	p.staged.set(fieldContentType, code)
	return nil
}

// SetPubDate stages a publication time parsed from free-form text and
// normalized to a canonical timestamp.
func (p *Post) SetPubDate(text string) error {
	parsed, err := parsePubDate(text)
	if err != nil {
		return err
	}
	p.staged.set(fieldPubDate, parsed)
	return nil
}

// SetTags tokenizes a raw tag string and stages the result as the post's
// full tag set.
func (p *Post) SetTags(raw string) {
	p.SetTagList(Tokenize(raw))
}

// SetTagList stages an already-tokenized tag list verbatim.
func (p *Post) SetTagList(tags []string) {
	p.stagedTags = append([]string(nil), tags...)
	p.tagsStaged = true
}

// Permalink builds the public URL for this post and passes it through the
// post_permalink filter chain.
func (p *Post) Permalink() string {
	link := p.svc.urls.Build(RoutePermalink, map[string]string{"slug": p.record.Slug})
	return filterValue(p.svc.hooks, "post_permalink", link)
}

// Tags returns the post's tag values, staged ones first, otherwise lazily
// loaded from the association table, filtered through post_tags.
func (p *Post) Tags() ([]string, error) {
	tags, err := p.tagValues()
	if err != nil {
		return nil, err
	}
	return filterValue(p.svc.hooks, "post_tags", tags), nil
}

// Comments lazily loads the post's comments, filtered through
// post_comments.
func (p *Post) Comments() ([]db.Comment, error) {
	if !p.commentsLoaded {
		comments, err := p.svc.comments.ByPostID(p.record.ID)
		if err != nil {
			return nil, err
		}
		p.comments = comments
		p.commentsLoaded = true
	}
	return filterValue(p.svc.hooks, "post_comments", p.comments), nil
}

// CommentCount returns the number of comments, filtered through
// post_comment_count.
func (p *Post) CommentCount() (int64, error) {
	count, err := p.svc.comments.CountByPostID(p.record.ID)
	if err != nil {
		return 0, err
	}
	return filterValue(p.svc.hooks, "post_comment_count", count), nil
}

// Author lazily loads the post's author, filtered through post_author.
func (p *Post) Author() (*db.User, error) {
	if p.author == nil {
		user, err := db.GetUserByID(p.svc.db, p.UserID())
		if err != nil {
			return nil, err
		}
		p.author = user
	}
	return filterValue(p.svc.hooks, "post_author", p.author), nil
}

// Info returns the sidecar attribute store for this post, creating it on
// first use, filtered through post_info.
func (p *Post) Info() *InfoStore {
	if p.info == nil {
		p.info = NewInfoStore(p.svc.db, p.record.ID)
	}
	return filterValue(p.svc.hooks, "post_info", p.info)
}

func (p *Post) tagValues() ([]string, error) {
	if p.tagsStaged {
		return p.stagedTags, nil
	}
	if p.tagsLoaded || p.record.ID == 0 {
		return p.tagsCache, nil
	}

	var names []string
	if err := p.svc.db.Model(&db.Tag{}).
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("post_tags.post_id = ?", p.record.ID).
		Order("tags.id asc").
		Pluck("tag_text", &names).Error; err != nil {
		return nil, fmt.Errorf("load tags for post %d: %w", p.record.ID, err)
	}
	p.tagsCache = names
	p.tagsLoaded = true
	return p.tagsCache, nil
}

type fieldChange struct {
	name  string
	value any
}

// pendingChanges lists staged fields whose value differs from the
// snapshot, in deterministic name order.
func (p *Post) pendingChanges() []fieldChange {
	var changes []fieldChange
	for _, name := range p.staged.names() {
		value := p.staged.fields[name]
		if !valueEqual(value, p.snapshotValue(name)) {
			changes = append(changes, fieldChange{name: name, value: value})
		}
	}
	return changes
}

func (p *Post) snapshotValue(name string) any {
	switch name {
	case fieldSlug:
		return p.record.Slug
	case fieldTitle:
		return p.record.Title
	case fieldContent:
		return p.record.Content
	case fieldGUID:
		return p.record.GUID
	case fieldUserID:
		return p.record.UserID
	case fieldStatus:
		return p.record.Status
	case fieldContentType:
		return p.record.ContentType
	case fieldPubDate:
		return p.record.PubDate
	}
	return nil
}

// applyStaged merges the changeset into rec. Slug and guid are handled by
// the save itself.
func (p *Post) applyStaged(rec *db.Post) {
	if v, ok := p.staged.stringVal(fieldTitle); ok {
		rec.Title = v
	}
	if v, ok := p.staged.stringVal(fieldContent); ok {
		rec.Content = v
	}
	if v, ok := p.staged.uintVal(fieldUserID); ok {
		rec.UserID = v
	}
	if v, ok := p.staged.intVal(fieldStatus); ok {
		rec.Status = v
	}
	if v, ok := p.staged.intVal(fieldContentType); ok {
		rec.ContentType = v
	}
	if v, ok := p.staged.timeVal(fieldPubDate); ok {
		rec.PubDate = v
	}
}

func valueEqual(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}

var pubDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

func parsePubDate(text string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range pubDateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPubDate, text)
}
