package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
)

var ErrPartnerNotFound = errors.New("partner not found")

// PartnerRepository abstracts partner persistence.
type PartnerRepository interface {
	UpsertPartner(ctx context.Context, userID, imageID int) (models.Partner, error)
	GetPartnerByUser(ctx context.Context, userID int) (models.Partner, error)
	UpdatePersona(ctx context.Context, userID int, persona models.Persona) (models.Partner, error)
}

// PartnerRepo is a sqlx implementation of PartnerRepository.
type PartnerRepo struct {
	db *sqlx.DB
}

// NewPartnerRepo constructs a PartnerRepo.
func NewPartnerRepo(db *sqlx.DB) *PartnerRepo {
	return &PartnerRepo{db: db}
}

const partnerColumns = `id, user_id, image_id, nickname, name, mbti, job, personality, created_at`

// UpsertPartner binds the user to an image, replacing any previous binding.
// The user_id uniqueness constraint guarantees at most one partner per user.
func (r *PartnerRepo) UpsertPartner(ctx context.Context, userID, imageID int) (models.Partner, error) {
	var partner models.Partner
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO partners (user_id, image_id) VALUES ($1, $2)
         ON CONFLICT (user_id) DO UPDATE SET image_id = EXCLUDED.image_id
         RETURNING `+partnerColumns,
		userID, imageID).StructScan(&partner)
	return partner, err
}

// GetPartnerByUser fetches the user's partner.
func (r *PartnerRepo) GetPartnerByUser(ctx context.Context, userID int) (models.Partner, error) {
	var partner models.Partner
	err := r.db.GetContext(ctx, &partner,
		`SELECT `+partnerColumns+` FROM partners WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Partner{}, ErrPartnerNotFound
	}
	return partner, err
}

// UpdatePersona updates the persona attributes of an existing partner.
func (r *PartnerRepo) UpdatePersona(ctx context.Context, userID int, persona models.Persona) (models.Partner, error) {
	var partner models.Partner
	err := r.db.QueryRowxContext(ctx,
		`UPDATE partners SET nickname=$1, name=$2, mbti=$3, job=$4, personality=$5
         WHERE user_id=$6
         RETURNING `+partnerColumns,
		persona.Nickname, persona.Name, persona.MBTI, persona.Job, persona.Personality, userID).
		StructScan(&partner)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Partner{}, ErrPartnerNotFound
	}
	return partner, err
}
