package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inklog/internal/db"
	"github.com/inklog/internal/plugin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrNotPersisted     = errors.New("post has not been inserted")
	ErrAlreadyPersisted = errors.New("post is already inserted")
)

// PostService orchestrates the post lifecycle: slug allocation, guid
// minting, the main-row write, sidecar info commit and tag association
// replacement, plus the lifecycle notifications around them.
type PostService struct {
	db       *gorm.DB
	vocab    *Vocabulary
	slugs    *SlugAllocator
	hooks    *plugin.Dispatcher
	comments *CommentStore
	urls     *URLBuilder
	logger   *zap.Logger
	hostName string
}

// PostServiceConfig carries the collaborators the lifecycle depends on.
// Nil entries are replaced with working defaults on the service database.
type PostServiceConfig struct {
	Vocabulary   *Vocabulary
	Slugs        *SlugAllocator
	Hooks        *plugin.Dispatcher
	Comments     *CommentStore
	URLs         *URLBuilder
	SiteHostName string
	Logger       *zap.Logger
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB, cfg PostServiceConfig) *PostService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = NewVocabulary(gdb)
	}
	if cfg.Slugs == nil {
		cfg.Slugs = NewSlugAllocator(gdb, 0)
	}
	if cfg.Hooks == nil {
		cfg.Hooks = plugin.NewDispatcher(cfg.Logger)
	}
	if cfg.Comments == nil {
		cfg.Comments = NewCommentStore(gdb)
	}
	if cfg.URLs == nil {
		cfg.URLs = NewURLBuilder("")
	}

	return &PostService{
		db:       gdb,
		vocab:    cfg.Vocabulary,
		slugs:    cfg.Slugs,
		hooks:    cfg.Hooks,
		comments: cfg.Comments,
		urls:     cfg.URLs,
		logger:   cfg.Logger,
		hostName: cfg.SiteHostName,
	}
}

// Hooks exposes the dispatcher so callers can register observers and
// filters.
func (s *PostService) Hooks() *plugin.Dispatcher { return s.hooks }

// PostInput represents fields accepted when building a post.
type PostInput struct {
	Title   string
	Content string
	Slug    string
	GUID    string
	// Tags is a raw tag string run through the tokenizer. TagList, when
	// set, is taken verbatim instead.
	Tags    string
	TagList []string
	UserID  uint
	Status  string
	Type    string
	PubDate string
	Info    map[string]string
}

// New builds an in-memory post with defaults (draft status, entry type,
// pubdate now) and the given fields staged. Nothing is written until
// Insert.
func (s *PostService) New(input PostInput) (*Post, error) {
	draft, err := s.vocab.StatusCode("draft")
	if err != nil {
		return nil, err
	}
	entry, err := s.vocab.TypeCode("entry")
	if err != nil {
		return nil, err
	}

	p := &Post{
		svc: s,
		record: db.Post{
			Status:      draft,
			ContentType: entry,
			PubDate:     time.Now(),
		},
		staged: newChangeset(),
		info:   NewInfoStore(s.db, 0),
	}

	if input.Title != "" {
		p.SetTitle(input.Title)
	}
	if input.Content != "" {
		p.SetContent(input.Content)
	}
	if input.Slug != "" {
		p.SetSlug(input.Slug)
	}
	if input.GUID != "" {
		p.staged.set(fieldGUID, input.GUID)
	}
	if input.UserID != 0 {
		p.SetUserID(input.UserID)
	}
	if input.Status != "" {
		if err := p.SetStatusName(input.Status); err != nil {
			return nil, err
		}
	}
	if input.Type != "" {
		if err := p.SetTypeName(input.Type); err != nil {
			return nil, err
		}
	}
	if input.PubDate != "" {
		if err := p.SetPubDate(input.PubDate); err != nil {
			return nil, err
		}
	}
	switch {
	case input.TagList != nil:
		p.SetTagList(input.TagList)
	case input.Tags != "":
		p.SetTags(input.Tags)
	}
	for name, value := range input.Info {
		p.info.Set(name, value)
	}

	return p, nil
}

// Create builds a post from input and inserts it.
func (s *PostService) Create(input PostInput) (*Post, error) {
	p, err := s.New(input)
	if err != nil {
		return nil, err
	}
	if err := p.Insert(); err != nil {
		return nil, err
	}
	return p, nil
}

// Get fetches a post aggregate by id. Soft-deleted posts are still plain
// rows and load normally.
func (s *PostService) Get(id uint) (*Post, error) {
	var rec db.Post
	if err := s.db.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return s.wrap(rec), nil
}

// GetBySlug fetches a post aggregate by its slug.
func (s *PostService) GetBySlug(slug string) (*Post, error) {
	var rec db.Post
	if err := s.db.Where("slug = ?", slug).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return s.wrap(rec), nil
}

func (s *PostService) wrap(rec db.Post) *Post {
	return &Post{
		svc:    s,
		record: rec,
		staged: newChangeset(),
		info:   NewInfoStore(s.db, rec.ID),
	}
}

// Insert writes a new post: slug allocation, guid minting, main row,
// sidecar commit and tag associations in one transaction. On failure the
// post stays un-persisted with its staged fields intact. A slug lost to a
// concurrent writer is retried with the next postfix up to the allocator's
// budget.
func (p *Post) Insert() error {
	s := p.svc
	if p.record.ID != 0 {
		return ErrAlreadyPersisted
	}

	tags, err := p.tagValues()
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		rec := p.record
		err := s.db.Transaction(func(tx *gorm.DB) error {
			stagedSlug, _ := p.staged.stringVal(fieldSlug)
			slug, err := s.slugs.Allocate(tx, "", stagedSlug, p.Title())
			if err != nil {
				return err
			}
			rec.Slug = slug

			p.applyStaged(&rec)

			cached, err := RenderContent(rec.Content)
			if err != nil {
				return fmt.Errorf("render content: %w", err)
			}
			rec.CachedContent = cached

			now := time.Now()
			if staged, ok := p.staged.stringVal(fieldGUID); ok && !guidMalformed(staged) {
				rec.GUID = staged
			} else {
				rec.GUID = s.mintGUID(rec.Slug, now)
			}

			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("insert post row: %w", err)
			}

			if err := p.info.Commit(tx, rec.ID); err != nil {
				return err
			}

			return s.replaceTags(tx, &rec, tags)
		})
		if err == nil {
			p.record = rec
			p.staged.clear()
			p.info.settle()
			p.tagsCache = append([]string(nil), tags...)
			p.tagsLoaded = true
			p.tagsStaged = false
			return nil
		}

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if attempt < s.slugs.RetryLimit() {
				s.logger.Debug("slug taken by concurrent writer, retrying",
					zap.String("slug", rec.Slug),
					zap.Int("attempt", attempt+1))
				continue
			}
			return fmt.Errorf("insert post: %w", ErrSlugExhausted)
		}
		return fmt.Errorf("insert post: %w", err)
	}
}

// Update persists staged edits to an existing post. A notification fires
// for every staged field whose value actually changed, before the write;
// observer failures never abort the save. The row is written keyed by the
// persisted slug, tag associations are fully replaced, and the sidecar is
// committed, all in one transaction. On failure the staged fields are kept
// for retry.
func (p *Post) Update() error {
	s := p.svc
	if p.record.ID == 0 {
		return ErrNotPersisted
	}

	// guid is immutable once created
	p.staged.remove(fieldGUID)

	tags, err := p.tagValues()
	if err != nil {
		return err
	}

	for _, change := range p.pendingChanges() {
		s.hooks.Notify("update_post_"+change.name, p, change.value)
	}

	for attempt := 0; ; attempt++ {
		rec := p.record
		err := s.db.Transaction(func(tx *gorm.DB) error {
			stagedSlug, _ := p.staged.stringVal(fieldSlug)
			slug, err := s.slugs.Allocate(tx, p.record.Slug, stagedSlug)
			if err != nil {
				return err
			}
			rec.Slug = slug

			p.applyStaged(&rec)

			if _, ok := p.staged.stringVal(fieldContent); ok {
				cached, err := RenderContent(rec.Content)
				if err != nil {
					return fmt.Errorf("render content: %w", err)
				}
				rec.CachedContent = cached
			}

			rec.UpdatedAt = time.Now()
			updates := map[string]interface{}{
				"slug":           rec.Slug,
				"title":          rec.Title,
				"content":        rec.Content,
				"cached_content": rec.CachedContent,
				"user_id":        rec.UserID,
				"status":         rec.Status,
				"content_type":   rec.ContentType,
				"pubdate":        rec.PubDate,
				"updated_at":     rec.UpdatedAt,
			}

			result := tx.Model(&db.Post{}).Where("slug = ?", p.record.Slug).Updates(updates)
			if result.Error != nil {
				return fmt.Errorf("update post row: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrPostNotFound
			}

			if err := s.replaceTags(tx, &rec, tags); err != nil {
				return err
			}

			return p.info.Commit(tx, rec.ID)
		})
		if err == nil {
			p.record = rec
			p.staged.clear()
			p.info.settle()
			p.tagsCache = append([]string(nil), tags...)
			p.tagsLoaded = true
			p.tagsStaged = false
			return nil
		}

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if attempt < s.slugs.RetryLimit() {
				s.logger.Debug("slug taken by concurrent writer, retrying",
					zap.String("slug", rec.Slug),
					zap.Int("attempt", attempt+1))
				continue
			}
			return fmt.Errorf("update post: %w", ErrSlugExhausted)
		}
		return fmt.Errorf("update post: %w", err)
	}
}

// Delete removes the post. The default path is a soft delete: the status
// moves to "deleted" and the row stays, preserving its slug. The hard path
// raises post_delete, cascades the comments and tag associations, then
// removes the row; the wrapped error names the stage that failed.
func (p *Post) Delete(hard bool) error {
	s := p.svc

	if !hard {
		code, err := s.vocab.StatusCode("deleted")
		if err != nil {
			return err
		}
		p.staged.set(fieldStatus, code)
		return p.Update()
	}

	if p.record.ID == 0 {
		return ErrNotPersisted
	}

	s.hooks.Notify("post_delete", p, nil)

	rec := p.record
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&rec).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear tag associations: %w", err)
		}
		if err := s.comments.DeleteForPost(tx, rec.ID); err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&db.Post{}, rec.ID)
		if result.Error != nil {
			return fmt.Errorf("remove post row: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("remove post row: %w", ErrPostNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("hard delete post %d: %w", rec.ID, err)
	}

	p.comments = nil
	p.commentsLoaded = true
	p.tagsCache = nil
	p.tagsLoaded = true
	p.tagsStaged = false
	return nil
}

// Publish moves the post to published status and saves it.
func (p *Post) Publish() error {
	code, err := p.svc.vocab.StatusCode("published")
	if err != nil {
		return err
	}
	p.staged.set(fieldStatus, code)
	return p.Update()
}

func (s *PostService) replaceTags(tx *gorm.DB, rec *db.Post, tags []string) error {
	rows := make([]db.Tag, 0, len(tags))
	for _, text := range tags {
		slug := Slugify(text)
		if slug == "" {
			slug = text
		}
		var tag db.Tag
		if err := tx.Where("tag_text = ?", text).
			Attrs(db.Tag{TagText: text, TagSlug: slug}).
			FirstOrCreate(&tag).Error; err != nil {
			return fmt.Errorf("ensure tag %q: %w", text, err)
		}
		rows = append(rows, tag)
	}

	if err := tx.Model(rec).Association("Tags").Replace(rows); err != nil {
		return fmt.Errorf("replace tag associations: %w", err)
	}
	return nil
}

func (s *PostService) mintGUID(slug string, now time.Time) string {
	if s.hostName == "" {
		return "urn:uuid:" + uuid.NewString()
	}
	return fmt.Sprintf("tag:%s,%d:%s/%d", s.hostName, now.Year(), slug, now.Unix())
}

// guidMalformed flags guids that must be re-minted: empty values and the
// truncated "//?p=" form produced by broken importers.
func guidMalformed(guid string) bool {
	trimmed := strings.TrimSpace(guid)
	return trimmed == "" || strings.HasPrefix(trimmed, "//?p=")
}

// filterValue threads a typed value through a filter chain and keeps the
// original when an observer returns an incompatible type.
func filterValue[T any](hooks *plugin.Dispatcher, event string, value T) T {
	out := hooks.Filter(event, value)
	if typed, ok := out.(T); ok {
		return typed
	}
	return value
}
