// Package admin implements the data actions of the back-office screens on
// top of typed repositories.
package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/internal/stores"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

// ResetPassword is the password ResetPasswords assigns.
const ResetPassword = "123123"

// Service groups the back-office actions. Every action reads and writes
// through the mock data service, so each call pays its latency.
type Service struct {
	Users            *mockdata.Repository[types.User]
	Products         *mockdata.Repository[types.Product]
	Cafes            *mockdata.Repository[types.Cafe]
	Hospitals        *mockdata.Repository[types.Hospital]
	Hotels           *mockdata.Repository[types.Hotel]
	Accommodations   *mockdata.Repository[types.Accommodation]
	GroomingServices *mockdata.Repository[types.GroomingService]
	Posts            *mockdata.Repository[types.Post]
	Comments         *mockdata.Repository[types.Comment]
	Inquiries        *mockdata.Repository[types.Inquiry]
	FAQs             *mockdata.Repository[types.FAQ]
	Notices          *mockdata.Repository[types.Notice]

	svc   *mockdata.Service
	clock mockdata.Clock
	log   *zap.Logger
}

type Option func(*Service)

func WithClock(c mockdata.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New binds the back-office repositories to svc.
func New(svc *mockdata.Service, opts ...Option) *Service {
	s := &Service{
		Users:            mockdata.NewRepository[types.User](svc, types.EntityUsers),
		Products:         mockdata.NewRepository[types.Product](svc, types.EntityProducts),
		Cafes:            mockdata.NewRepository[types.Cafe](svc, types.EntityCafes),
		Hospitals:        mockdata.NewRepository[types.Hospital](svc, types.EntityHospitals),
		Hotels:           mockdata.NewRepository[types.Hotel](svc, types.EntityHotels),
		Accommodations:   mockdata.NewRepository[types.Accommodation](svc, types.EntityAccommodations),
		GroomingServices: mockdata.NewRepository[types.GroomingService](svc, types.EntityGroomingServices),
		Posts:            mockdata.NewRepository[types.Post](svc, types.EntityPosts),
		Comments:         mockdata.NewRepository[types.Comment](svc, types.EntityComments),
		Inquiries:        mockdata.NewRepository[types.Inquiry](svc, types.EntityInquiries),
		FAQs:             mockdata.NewRepository[types.FAQ](svc, types.EntityFAQs),
		Notices:          mockdata.NewRepository[types.Notice](svc, types.EntityNotices),
		svc:              svc,
		clock:            mockdata.SystemClock,
		log:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ToggleBest flips a product's best-seller flag.
func (s *Service) ToggleBest(ctx context.Context, id types.ID) (types.Product, error) {
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return types.Product{}, err
	}
	return s.Products.Update(ctx, id, types.Record{"isBest": !p.IsBest})
}

// ToggleFeatured flips a product's featured flag.
func (s *Service) ToggleFeatured(ctx context.Context, id types.ID) (types.Product, error) {
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return types.Product{}, err
	}
	return s.Products.Update(ctx, id, types.Record{"isFeatured": !p.IsFeatured})
}

// AdjustStock adds delta to a product's stock. Stock never goes below zero.
func (s *Service) AdjustStock(ctx context.Context, id types.ID, delta int) (types.Product, error) {
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return types.Product{}, err
	}
	return s.Products.Update(ctx, id, types.Record{"stock": max(p.Stock+delta, 0)})
}

// ResetPasswords sets ResetPassword on every listed user that exists and
// returns how many were reset.
func (s *Service) ResetPasswords(ctx context.Context, ids []types.ID) (int, error) {
	reset := 0
	for _, id := range ids {
		if _, err := s.Users.Update(ctx, id, types.Record{"password": ResetPassword}); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				s.log.Warn("password reset skipped", zap.Stringer("user", id))
				continue
			}
			return reset, fmt.Errorf("reset password of %s: %w", id, err)
		}
		reset++
	}
	s.log.Info("passwords reset", zap.Int("count", reset))
	return reset, nil
}

// AnswerInquiry records the admin's response and puts the inquiry in
// status. An empty status is answered, or pending when the response is
// empty. Only the response and the status change.
func (s *Service) AnswerInquiry(ctx context.Context, id types.ID, response, status string) (types.Inquiry, error) {
	switch {
	case status == "" && response == "":
		status = types.InquiryPending
	case status == "":
		status = types.InquiryAnswered
	case !slices.Contains(types.InquiryStatuses, status):
		return types.Inquiry{}, fmt.Errorf("%w: inquiry status %q", types.ErrInvalidData, status)
	}
	inq, err := s.Inquiries.Update(ctx, id, types.Record{
		"adminResponse": response,
		"status":        status,
	})
	if err != nil {
		return types.Inquiry{}, err
	}
	s.log.Info("inquiry answered", zap.Stringer("id", id), zap.String("status", status))
	return inq, nil
}

// AddPost creates a community post on behalf of user authorID. Title,
// content and author are required.
func (s *Service) AddPost(ctx context.Context, title, content string, authorID int64) (types.Post, error) {
	if title == "" || content == "" || authorID == 0 {
		return types.Post{}, fmt.Errorf("%w: post needs a title, content and author id", types.ErrInvalidData)
	}
	return s.Posts.Create(ctx, types.Post{
		Title:      title,
		Content:    content,
		AuthorID:   authorID,
		AuthorName: authorName(authorID),
		CreatedAt:  s.timestamp(),
	})
}

// EditPost replaces a post's title and content.
func (s *Service) EditPost(ctx context.Context, id types.ID, title, content string) (types.Post, error) {
	return s.Posts.Update(ctx, id, types.Record{"title": title, "content": content})
}

// AddComment creates a comment. Post, content and author are required;
// ParentCommentID is optional.
func (s *Service) AddComment(ctx context.Context, c types.Comment) (types.Comment, error) {
	if c.PostID.IsZero() || c.Content == "" || c.AuthorID == 0 {
		return types.Comment{}, fmt.Errorf("%w: comment needs a post id, content and author id", types.ErrInvalidData)
	}
	c.ID = types.ID{}
	c.AuthorName = authorName(c.AuthorID)
	c.CreatedAt = s.timestamp()
	return s.Comments.Create(ctx, c)
}

// EditComment replaces a comment's content.
func (s *Service) EditComment(ctx context.Context, id types.ID, content string) (types.Comment, error) {
	return s.Comments.Update(ctx, id, types.Record{"content": content})
}

// Count is the number of records stored for one entity.
type Count struct {
	Entity  string `json:"entity"`
	Records int    `json:"records"`
}

// Overview counts the records of every standard entity, in
// types.StandardEntityNames order. Absent collections count zero. The
// reads run concurrently, so the whole call pays about one latency.
func (s *Service) Overview(ctx context.Context) ([]Count, error) {
	counts := make([]Count, len(types.StandardEntityNames))
	g, ctx := errgroup.WithContext(ctx)
	for i, entity := range types.StandardEntityNames {
		g.Go(func() error {
			res, err := s.svc.GetAll(ctx, entity)
			if err != nil {
				return fmt.Errorf("count %s: %w", entity, err)
			}
			counts[i] = Count{Entity: entity, Records: len(res.Data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// authorName is the display name given to posts and comments written from
// the back office.
func authorName(id int64) string {
	return fmt.Sprintf("사용자%d", id)
}

// PublishFAQ creates an FAQ stamped with the current time.
func (s *Service) PublishFAQ(ctx context.Context, faq types.FAQ) (types.FAQ, error) {
	faq.CreatedAt = s.timestamp()
	return s.FAQs.Create(ctx, faq)
}

// PublishNotice creates a notice stamped with the current time.
func (s *Service) PublishNotice(ctx context.Context, n types.Notice) (types.Notice, error) {
	n.CreatedAt = s.timestamp()
	return s.Notices.Create(ctx, n)
}

func (s *Service) timestamp() string {
	return s.clock.Now().UTC().Format(stores.TimeLayout)
}
