// Package community keeps the community boards: per board a list of
// notices and a list of posts, each with comments, plus the set of items
// the visitor has liked. State lives in memory only.
//
// Ids in this package are matched by their text, so a post addressed as
// "3" is the post with numeric id 3.
package community

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/internal/stores"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

// Defaults for anonymous authors.
const (
	DefaultPostAuthor    = "익명"
	DefaultCommentAuthor = "댓글러"
)

type Comment struct {
	ID        types.ID `json:"id"`
	Author    string   `json:"author"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"createdAt"`
	Likes     int      `json:"likes"`
}

type Post struct {
	ID        types.ID  `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Category  string    `json:"category,omitempty"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt,omitempty"`
	Views     int       `json:"views"`
	Likes     int       `json:"likes"`
	Comments  []Comment `json:"comments"`

	// Extra holds the fields of a post beyond the ones above. They are
	// stored as top-level fields next to them.
	Extra types.Record `json:"-"`
}

// postKeys are the JSON names of the fields Post declares.
var postKeys = []string{
	"id", "title", "content", "author", "category",
	"createdAt", "updatedAt", "views", "likes", "comments",
}

// postFields is Post without its JSON methods.
type postFields Post

func (p Post) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(postFields(p))
	if err != nil || len(p.Extra) == 0 {
		return data, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, ok := out[k]; ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = raw
	}
	return json.Marshal(out)
}

func (p *Post) UnmarshalJSON(data []byte) error {
	var known postFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all types.Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&all); err != nil {
		return err
	}
	known.Extra = extraFields(all)
	*p = Post(known)
	return nil
}

// extraFields returns the keys of r that Post does not declare, or nil.
func extraFields(r types.Record) types.Record {
	out := r.Clone()
	for _, k := range postKeys {
		delete(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Board is one board's content.
type Board struct {
	Name    string `json:"name,omitempty"`
	Notices []Post `json:"notices"`
	Posts   []Post `json:"posts"`
}

// NewPost carries the caller-supplied fields of a post. Extra holds any
// further form fields; they are kept on the post.
type NewPost struct {
	Title    string
	Content  string
	Author   string
	Category string
	Extra    types.Record
}

// Store holds every board. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	log    *zap.Logger
	clock  mockdata.Clock
	boards map[string]*Board
	liked  []types.ID
}

type Option func(*Store)

func WithClock(c mockdata.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New returns a store holding a copy of boards.
func New(boards map[string]Board, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{log: log, clock: mockdata.SystemClock, boards: make(map[string]*Board, len(boards))}
	for k, b := range boards {
		cp := copyBoard(b)
		s.boards[k] = &cp
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Boards lists the board keys in order.
func (s *Store) Boards() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.boards))
	for k := range s.boards {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Board returns a copy of one board.
func (s *Store) Board(key string) (Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boards[key]
	if !ok {
		return Board{}, types.ErrBoardNotFound
	}
	return copyBoard(*b), nil
}

// LikedItems returns the liked post and comment ids in the order they were
// liked.
func (s *Store) LikedItems() []types.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ID(nil), s.liked...)
}

// CreatePost appends a post numbered one past the board's highest post id.
func (s *Store) CreatePost(boardKey string, in NewPost) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardKey]
	if !ok {
		return Post{}, types.ErrBoardNotFound
	}
	var highest int64
	for _, p := range b.Posts {
		if n, ok := p.ID.Int64(); ok && n > highest {
			highest = n
		}
	}
	author := in.Author
	if author == "" {
		author = DefaultPostAuthor
	}
	extra, err := types.Normalize(extraFields(in.Extra))
	if err != nil {
		return Post{}, err
	}
	post := Post{
		ID:        types.NumberID(highest + 1),
		Title:     in.Title,
		Content:   in.Content,
		Author:    author,
		Category:  in.Category,
		CreatedAt: s.clock.Now().UTC().Format(stores.DateLayout),
		Comments:  []Comment{},
		Extra:     extra,
	}
	b.Posts = append(b.Posts, post)
	s.log.Debug("post created", zap.String("board", boardKey), zap.Stringer("id", post.ID))
	return copyPost(post), nil
}

// UpdatePost merges fields into a post and stamps updatedAt. Fields Post
// does not declare land in Extra. Notices are not editable here.
func (s *Store) UpdatePost(boardKey string, postID types.ID, fields map[string]any) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardKey]
	if !ok {
		return Post{}, types.ErrBoardNotFound
	}
	i := indexPost(b.Posts, postID)
	if i < 0 {
		return Post{}, types.ErrPostNotFound
	}
	var updated Post
	if err := stores.Merge(b.Posts[i], fields, &updated); err != nil {
		return Post{}, err
	}
	updated.ID = b.Posts[i].ID
	updated.UpdatedAt = s.clock.Now().UTC().Format(stores.TimeLayout)
	b.Posts[i] = updated
	return copyPost(updated), nil
}

func (s *Store) DeletePost(boardKey string, postID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardKey]
	if !ok {
		return types.ErrBoardNotFound
	}
	i := indexPost(b.Posts, postID)
	if i < 0 {
		return types.ErrPostNotFound
	}
	b.Posts = append(b.Posts[:i:i], b.Posts[i+1:]...)
	return nil
}

// AddComment appends a comment to a notice or post. The comment id is the
// clock in milliseconds, moved past ids already used on that post.
func (s *Store) AddComment(boardKey string, postID types.ID, content, author string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, err := s.findAny(boardKey, postID)
	if err != nil {
		return Comment{}, err
	}
	if author == "" {
		author = DefaultCommentAuthor
	}
	now := s.clock.Now()
	n := now.UnixMilli()
	for indexComment(post.Comments, types.NumberID(n)) >= 0 {
		n++
	}
	c := Comment{
		ID:        types.NumberID(n),
		Author:    author,
		Content:   content,
		CreatedAt: now.UTC().Format(stores.TimeLayout),
	}
	post.Comments = append(post.Comments, c)
	return c, nil
}

func (s *Store) UpdateComment(boardKey string, postID, commentID types.ID, content string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, err := s.findAny(boardKey, postID)
	if err != nil {
		return Comment{}, err
	}
	i := indexComment(post.Comments, commentID)
	if i < 0 {
		return Comment{}, types.ErrCommentNotFound
	}
	post.Comments[i].Content = content
	return post.Comments[i], nil
}

func (s *Store) DeleteComment(boardKey string, postID, commentID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, err := s.findAny(boardKey, postID)
	if err != nil {
		return err
	}
	i := indexComment(post.Comments, commentID)
	if i < 0 {
		return types.ErrCommentNotFound
	}
	post.Comments = append(post.Comments[:i:i], post.Comments[i+1:]...)
	return nil
}

// LikePost toggles the visitor's like on a notice or post and reports
// whether it is now liked.
func (s *Store) LikePost(boardKey string, postID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, err := s.findAny(boardKey, postID)
	if err != nil {
		return false, err
	}
	liked := s.toggle(postID)
	post.Likes += delta(liked)
	return liked, nil
}

// LikeComment toggles the visitor's like on a comment. Posts and comments
// share one liked set.
func (s *Store) LikeComment(boardKey string, postID, commentID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, err := s.findAny(boardKey, postID)
	if err != nil {
		return false, err
	}
	i := indexComment(post.Comments, commentID)
	if i < 0 {
		return false, types.ErrCommentNotFound
	}
	liked := s.toggle(commentID)
	post.Comments[i].Likes += delta(liked)
	return liked, nil
}

// findAny looks for a post among the board's notices, then its posts.
// Callers hold s.mu.
func (s *Store) findAny(boardKey string, postID types.ID) (*Post, error) {
	b, ok := s.boards[boardKey]
	if !ok {
		return nil, types.ErrBoardNotFound
	}
	if i := indexPost(b.Notices, postID); i >= 0 {
		return &b.Notices[i], nil
	}
	if i := indexPost(b.Posts, postID); i >= 0 {
		return &b.Posts[i], nil
	}
	return nil, types.ErrPostNotFound
}

func (s *Store) toggle(id types.ID) bool {
	for i, l := range s.liked {
		if l.String() == id.String() {
			s.liked = append(s.liked[:i:i], s.liked[i+1:]...)
			return false
		}
	}
	s.liked = append(s.liked, id)
	return true
}

func delta(liked bool) int {
	if liked {
		return 1
	}
	return -1
}

func indexPost(posts []Post, id types.ID) int {
	for i, p := range posts {
		if p.ID.String() == id.String() {
			return i
		}
	}
	return -1
}

func indexComment(comments []Comment, id types.ID) int {
	for i, c := range comments {
		if c.ID.String() == id.String() {
			return i
		}
	}
	return -1
}

func copyPost(p Post) Post {
	p.Comments = append([]Comment{}, p.Comments...)
	if p.Extra != nil {
		p.Extra = p.Extra.Clone()
	}
	return p
}

func copyBoard(b Board) Board {
	out := Board{Name: b.Name, Notices: make([]Post, len(b.Notices)), Posts: make([]Post, len(b.Posts))}
	for i, p := range b.Notices {
		out.Notices[i] = copyPost(p)
	}
	for i, p := range b.Posts {
		out.Posts[i] = copyPost(p)
	}
	return out
}
