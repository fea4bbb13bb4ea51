package micropost

import "context"

// Store persists microposts.
//
// Contract:
//   - Create validates first and persists nothing on failure; an unknown
//     owner is a NotFoundError for resource "user".
//   - Listings are newest first (created_at DESC, id DESC).
//   - Delete succeeds only for the owner: a missing post is NotFound, a post
//     owned by someone else is ErrForbidden.
//   - DeleteByUser removes every post owned by the user and reports how many.
type Store interface {
	Create(ctx context.Context, in CreateInput) (Micropost, error)
	Get(ctx context.Context, id string) (Micropost, bool, error)
	ListByUser(ctx context.Context, userID string, page Page) ([]Micropost, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id, ownerID string) (Micropost, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}
