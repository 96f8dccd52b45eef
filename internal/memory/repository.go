// Package memory implements the domain Repository on plain maps guarded by a
// single RWMutex. It backs the domain test-suite and local runs that have no
// database at hand, while honouring the same contract as the postgres
// implementation: typed conflicts, idempotent relationship toggles and
// read-your-writes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"conduit/internal/domain"
	"conduit/internal/domain/password"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
)

type userRecord struct {
	id       uuid.UUID
	username string
	email    string
	password []byte
	bio      *string
	image    *string
}

type articleRecord struct {
	seq         int64
	slug        string
	title       string
	description string
	body        string
	tagList     []string
	authorID    uuid.UUID
	createdAt   time.Time
	updatedAt   time.Time
}

type commentRecord struct {
	id          int64
	body        string
	articleSlug string
	authorID    uuid.UUID
	createdAt   time.Time
	updatedAt   time.Time
}

type pair struct {
	subject uuid.UUID
	object  string
}

type followEdge struct {
	follower uuid.UUID
	followed uuid.UUID
}

type Repository struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*userRecord
	articles      map[string]*articleRecord
	comments      map[int64]*commentRecord
	favorites     map[pair]struct{}
	follows       map[followEdge]struct{}
	nextCommentID int64
	nextArticle   int64
}

func NewRepository() *Repository {
	return &Repository{
		users:     make(map[uuid.UUID]*userRecord),
		articles:  make(map[string]*articleRecord),
		comments:  make(map[int64]*commentRecord),
		favorites: make(map[pair]struct{}),
		follows:   make(map[followEdge]struct{}),
	}
}

var _ domain.Repository = (*Repository)(nil)

func (r *Repository) SignUp(ctx context.Context, signUp domain.SignUp) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.username == signUp.Username {
			return nil, xerrors.New(domain.ErrUsernameTaken)
		}
		if user.email == signUp.Email {
			return nil, xerrors.New(domain.ErrEmailTaken)
		}
	}

	record := &userRecord{
		id:       uuid.New(),
		username: signUp.Username,
		email:    signUp.Email,
		password: []byte(signUp.Password),
	}
	r.users[record.id] = record

	// User and self-follow are one logical unit: both happen under the same
	// lock, a user without the edge is never observable.
	r.follows[followEdge{follower: record.id, followed: record.id}] = struct{}{}

	return toUser(record), nil
}

func (r *Repository) UpdateUser(ctx context.Context, user domain.User, update domain.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.users[user.ID]
	if !ok {
		return nil, xerrors.New(domain.ErrUserNotFound)
	}

	// Validate everything before writing anything: a conflicted update must
	// leave the record untouched, the same as the single-statement UPDATE in
	// the postgres implementation.
	for _, other := range r.users {
		if other.id == record.id {
			continue
		}
		if update.Email != nil && other.email == *update.Email {
			return nil, xerrors.New(domain.ErrEmailTaken)
		}
		if update.Username != nil && other.username == *update.Username {
			return nil, xerrors.New(domain.ErrUsernameTaken)
		}
	}

	if update.Email != nil {
		record.email = *update.Email
	}
	if update.Username != nil {
		record.username = *update.Username
	}
	if update.Password != nil {
		record.password = []byte(*update.Password)
	}

	// Bio and image are always overwritten, absence clears them.
	record.bio = update.Bio
	record.image = update.Image

	return toUser(record), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.users[id]
	if !ok {
		return nil, xerrors.New(domain.ErrUserNotFound)
	}

	return toUser(record), nil
}

func (r *Repository) GetUserByEmailAndPassword(ctx context.Context, email, clearText string) (*domain.User, error) {
	r.mu.RLock()
	record := r.findByEmail(email)
	r.mu.RUnlock()

	if record == nil {
		return nil, xerrors.New(domain.ErrInvalidCredentials)
	}

	match, err := passwordMatches(record.password, clearText)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if !match {
		return nil, xerrors.New(domain.ErrInvalidCredentials)
	}

	return toUser(record), nil
}

func (r *Repository) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record := r.findByUsername(username)
	if record == nil {
		return nil, xerrors.New(domain.ErrProfileNotFound)
	}

	profile := toProfile(record)
	return &profile, nil
}

func (r *Repository) GetProfileView(ctx context.Context, viewer *domain.User, username string) (*domain.ProfileView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.profileViewLocked(viewer, username)
}

func (r *Repository) profileViewLocked(viewer *domain.User, username string) (*domain.ProfileView, error) {
	record := r.findByUsername(username)
	if record == nil {
		return nil, xerrors.New(domain.ErrProfileNotFound)
	}

	view := &domain.ProfileView{
		Profile: toProfile(record),
	}
	if viewer != nil {
		_, view.Following = r.follows[followEdge{follower: viewer.ID, followed: record.id}]
		view.Viewer = viewer.ID
	}

	return view, nil
}

func (r *Repository) Follow(ctx context.Context, follower *domain.User, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.findByUsername(username)
	if record == nil {
		return xerrors.New(domain.ErrProfileNotFound)
	}

	r.follows[followEdge{follower: follower.ID, followed: record.id}] = struct{}{}
	return nil
}

func (r *Repository) Unfollow(ctx context.Context, follower *domain.User, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.findByUsername(username)
	if record == nil {
		return xerrors.New(domain.ErrProfileNotFound)
	}

	delete(r.follows, followEdge{follower: follower.ID, followed: record.id})
	return nil
}

func (r *Repository) PublishArticle(ctx context.Context, draft domain.ArticleContent, author *domain.User) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	authorRecord, ok := r.users[author.ID]
	if !ok {
		return nil, xerrors.New(domain.ErrUserNotFound)
	}

	slug := draft.Slug()
	if _, exists := r.articles[slug]; exists {
		return nil, xerrors.New(domain.ErrDuplicatedSlug)
	}

	now := time.Now()
	r.nextArticle++
	record := &articleRecord{
		seq:         r.nextArticle,
		slug:        slug,
		title:       draft.Title,
		description: draft.Description,
		body:        draft.Body,
		tagList:     append([]string(nil), draft.TagList...),
		authorID:    authorRecord.id,
		createdAt:   now,
		updatedAt:   now,
	}
	r.articles[slug] = record

	return r.toArticleLocked(record), nil
}

func (r *Repository) GetArticleBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.articles[slug]
	if !ok {
		return nil, xerrors.New(domain.ErrArticleNotFound)
	}

	return r.toArticleLocked(record), nil
}

func (r *Repository) GetArticleView(ctx context.Context, viewer *domain.User, article domain.Article) (*domain.ArticleView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.articleViewLocked(viewer, article)
}

func (r *Repository) articleViewLocked(viewer *domain.User, article domain.Article) (*domain.ArticleView, error) {
	authorView, err := r.profileViewLocked(viewer, article.Author.Username)
	if err != nil {
		return nil, xerrors.New(err)
	}

	view := &domain.ArticleView{
		Slug:           article.Slug,
		Content:        article.Content,
		Author:         *authorView,
		Metadata:       article.Metadata,
		FavoritesCount: article.FavoritesCount,
	}
	if viewer != nil {
		_, view.Favorited = r.favorites[pair{subject: viewer.ID, object: article.Slug}]
		view.Viewer = viewer.ID
	}

	return view, nil
}

func (r *Repository) GetArticlesViews(ctx context.Context, viewer *domain.User, articles []domain.Article) ([]domain.ArticleView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]domain.ArticleView, 0, len(articles))
	for _, article := range articles {
		view, err := r.articleViewLocked(viewer, article)
		if err != nil {
			return nil, xerrors.New(err)
		}
		views = append(views, *view)
	}

	return views, nil
}

func (r *Repository) FindArticles(ctx context.Context, query domain.ArticleQuery) ([]domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*articleRecord
	for _, record := range r.articles {
		if query.Author != "" {
			author := r.users[record.authorID]
			if author == nil || author.username != query.Author {
				continue
			}
		}
		if query.Tag != "" && !contains(record.tagList, query.Tag) {
			continue
		}
		if query.FavoritedBy != "" {
			fan := r.findByUsername(query.FavoritedBy)
			if fan == nil {
				continue
			}
			if _, ok := r.favorites[pair{subject: fan.id, object: record.slug}]; !ok {
				continue
			}
		}
		records = append(records, record)
	}

	sortByRecency(records)

	articles := make([]domain.Article, 0, len(records))
	for _, record := range records {
		articles = append(articles, *r.toArticleLocked(record))
	}

	return articles, nil
}

func (r *Repository) Feed(ctx context.Context, user *domain.User, query domain.FeedQuery) ([]domain.ArticleView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*articleRecord
	for _, record := range r.articles {
		if _, ok := r.follows[followEdge{follower: user.ID, followed: record.authorID}]; ok {
			records = append(records, record)
		}
	}

	sortByRecency(records)
	records = paginate(records, query.Limit, query.Offset)

	views := make([]domain.ArticleView, 0, len(records))
	for _, record := range records {
		view, err := r.articleViewLocked(user, *r.toArticleLocked(record))
		if err != nil {
			return nil, xerrors.New(err)
		}
		views = append(views, *view)
	}

	return views, nil
}

func (r *Repository) UpdateArticle(ctx context.Context, article domain.Article, update domain.ArticleUpdate) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.articles[article.Slug]
	if !ok {
		return nil, xerrors.New(domain.ErrArticleNotFound)
	}

	if update.Title != nil {
		record.title = *update.Title
	}
	if update.Description != nil {
		record.description = *update.Description
	}
	if update.Body != nil {
		record.body = *update.Body
	}
	record.updatedAt = time.Now()

	return r.toArticleLocked(record), nil
}

func (r *Repository) DeleteArticle(ctx context.Context, article *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[article.Slug]; !ok {
		return xerrors.New(domain.ErrArticleNotFound)
	}

	delete(r.articles, article.Slug)
	for id, comment := range r.comments {
		if comment.articleSlug == article.Slug {
			delete(r.comments, id)
		}
	}
	for key := range r.favorites {
		if key.object == article.Slug {
			delete(r.favorites, key)
		}
	}

	return nil
}

func (r *Repository) Favorite(ctx context.Context, article *domain.Article, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[article.Slug]; !ok {
		return xerrors.New(domain.ErrArticleNotFound)
	}

	r.favorites[pair{subject: user.ID, object: article.Slug}] = struct{}{}
	return nil
}

func (r *Repository) Unfavorite(ctx context.Context, article *domain.Article, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.favorites, pair{subject: user.ID, object: article.Slug})
	return nil
}

func (r *Repository) CommentArticle(ctx context.Context, user *domain.User, article *domain.Article, content domain.CommentContent) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[article.Slug]; !ok {
		return nil, xerrors.New(domain.ErrArticleNotFound)
	}
	author, ok := r.users[user.ID]
	if !ok {
		return nil, xerrors.New(domain.ErrUserNotFound)
	}

	now := time.Now()
	r.nextCommentID++
	record := &commentRecord{
		id:          r.nextCommentID,
		body:        string(content),
		articleSlug: article.Slug,
		authorID:    author.id,
		createdAt:   now,
		updatedAt:   now,
	}
	r.comments[record.id] = record

	return r.toCommentLocked(record), nil
}

func (r *Repository) GetComment(ctx context.Context, commentID int64) (*domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.comments[commentID]
	if !ok {
		return nil, xerrors.New(domain.ErrCommentNotFound)
	}

	return r.toCommentLocked(record), nil
}

func (r *Repository) GetComments(ctx context.Context, article *domain.Article) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*commentRecord
	for _, record := range r.comments {
		if record.articleSlug == article.Slug {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].id < records[j].id })

	comments := make([]domain.Comment, 0, len(records))
	for _, record := range records {
		comments = append(comments, *r.toCommentLocked(record))
	}

	return comments, nil
}

func (r *Repository) DeleteComment(ctx context.Context, commentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[commentID]; !ok {
		return xerrors.New(domain.ErrCommentNotFound)
	}

	delete(r.comments, commentID)
	return nil
}

func (r *Repository) GetTags(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{})
	for _, record := range r.articles {
		for _, tag := range record.tagList {
			set[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags, nil
}

func (r *Repository) findByEmail(email string) *userRecord {
	for _, record := range r.users {
		if record.email == email {
			return record
		}
	}
	return nil
}

func (r *Repository) findByUsername(username string) *userRecord {
	for _, record := range r.users {
		if record.username == username {
			return record
		}
	}
	return nil
}

func (r *Repository) toArticleLocked(record *articleRecord) *domain.Article {
	author := r.users[record.authorID]

	var favorites int64
	for key := range r.favorites {
		if key.object == record.slug {
			favorites++
		}
	}

	return &domain.Article{
		Slug: record.slug,
		Content: domain.ArticleContent{
			Title:       record.title,
			Description: record.description,
			Body:        record.body,
			TagList:     append([]string(nil), record.tagList...),
		},
		Author: toProfile(author),
		Metadata: domain.ArticleMetadata{
			CreatedAt: record.createdAt,
			UpdatedAt: record.updatedAt,
		},
		FavoritesCount: favorites,
	}
}

func (r *Repository) toCommentLocked(record *commentRecord) *domain.Comment {
	author := r.users[record.authorID]

	return &domain.Comment{
		ID:        record.id,
		Author:    toProfile(author),
		Body:      record.body,
		CreatedAt: record.createdAt,
		UpdatedAt: record.updatedAt,
	}
}

func toUser(record *userRecord) *domain.User {
	return &domain.User{
		ID:      record.id,
		Email:   record.email,
		Profile: toProfile(record),
	}
}

func toProfile(record *userRecord) domain.Profile {
	return domain.Profile{
		Username: record.username,
		Bio:      record.bio,
		Image:    record.image,
	}
}

func passwordMatches(stored []byte, clearText string) (bool, error) {
	return password.FromHash(stored).Verify(clearText)
}

func contains(haystack []string, needle string) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}

func sortByRecency(records []*articleRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })
}

func paginate(records []*articleRecord, limit, offset int64) []*articleRecord {
	if offset >= int64(len(records)) {
		return nil
	}
	records = records[offset:]
	if limit > 0 && limit < int64(len(records)) {
		records = records[:limit]
	}
	return records
}
