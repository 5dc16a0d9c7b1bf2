package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const profileColumns = `id, name, image, institutional_email, personal_email, class_year, post_grad_type,
	company, title, industry, school, program, discipline,
	country, state, city, borough_district, location_id,
	looking_for_roommate, is_onboarded, onboarding_step, visibility_options,
	created_at, updated_at`

// profileRow is the flat nullable-column shape of a profile.
type profileRow struct {
	ID                 uuid.UUID                `db:"id"`
	Name               string                   `db:"name"`
	Image              *string                  `db:"image"`
	InstitutionalEmail string                   `db:"institutional_email"`
	PersonalEmail      *string                  `db:"personal_email"`
	ClassYear          *int                     `db:"class_year"`
	PostGradType       *string                  `db:"post_grad_type"`
	Company            *string                  `db:"company"`
	Title              *string                  `db:"title"`
	Industry           *string                  `db:"industry"`
	School             *string                  `db:"school"`
	Program            *string                  `db:"program"`
	Discipline         *string                  `db:"discipline"`
	Country            *string                  `db:"country"`
	State              *string                  `db:"state"`
	City               *string                  `db:"city"`
	BoroughDistrict    *string                  `db:"borough_district"`
	LocationID         *uuid.UUID               `db:"location_id"`
	LookingForRoommate bool                     `db:"looking_for_roommate"`
	IsOnboarded        bool                     `db:"is_onboarded"`
	OnboardingStep     int                      `db:"onboarding_step"`
	Visibility         domain.VisibilityOptions `db:"visibility_options"`
	CreatedAt          time.Time                `db:"created_at"`
	UpdatedAt          time.Time                `db:"updated_at"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toProfileRow(p *domain.Profile) *profileRow {
	row := &profileRow{
		ID:                 p.ID,
		Name:               p.Name,
		Image:              p.Image,
		InstitutionalEmail: p.InstitutionalEmail,
		PersonalEmail:      p.PersonalEmail,
		ClassYear:          p.ClassYear,
		LocationID:         p.LocationID,
		LookingForRoommate: p.LookingForRoommate,
		IsOnboarded:        p.IsOnboarded,
		OnboardingStep:     int(p.OnboardingStep),
		Visibility:         p.Visibility,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if row.Visibility == nil {
		row.Visibility = domain.VisibilityOptions{}
	}

	if p.Details != nil {
		row.PostGradType = nullable(string(p.Details.Type()))
	}
	switch d := p.Details.(type) {
	case domain.WorkDetails:
		row.Company, row.Title, row.Industry = nullable(d.Company), nullable(d.Title), nullable(d.Industry)
	case domain.SchoolDetails:
		row.School, row.Program, row.Discipline = nullable(d.School), nullable(d.Program), nullable(d.Discipline)
	}

	if p.Location != nil {
		row.Country = nullable(p.Location.Country)
		row.State = nullable(p.Location.State)
		row.City = nullable(p.Location.City)
		row.BoroughDistrict = nullable(p.Location.BoroughDistrict)
	}
	return row
}

func (r *profileRow) toDomain() *domain.Profile {
	p := &domain.Profile{
		ID:                 r.ID,
		Name:               r.Name,
		Image:              r.Image,
		InstitutionalEmail: r.InstitutionalEmail,
		PersonalEmail:      r.PersonalEmail,
		ClassYear:          r.ClassYear,
		LocationID:         r.LocationID,
		LookingForRoommate: r.LookingForRoommate,
		IsOnboarded:        r.IsOnboarded,
		OnboardingStep:     domain.Step(r.OnboardingStep),
		Visibility:         r.Visibility,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if p.Visibility == nil {
		p.Visibility = domain.VisibilityOptions{}
	}

	if r.PostGradType != nil {
		switch t, _ := domain.ParsePostGradType(*r.PostGradType); t {
		case domain.PostGradWork, domain.PostGradInternship:
			p.Details = domain.WorkDetails{
				Internship: t == domain.PostGradInternship,
				Company:    deref(r.Company),
				Title:      deref(r.Title),
				Industry:   deref(r.Industry),
			}
		case domain.PostGradSchool:
			p.Details = domain.SchoolDetails{
				School:     deref(r.School),
				Program:    deref(r.Program),
				Discipline: deref(r.Discipline),
			}
		case domain.PostGradSeeking:
			p.Details = domain.SeekingDetails{}
		}
	}

	if r.Country != nil || r.City != nil {
		p.Location = &domain.Location{
			Country:         deref(r.Country),
			State:           deref(r.State),
			City:            deref(r.City),
			BoroughDistrict: deref(r.BoroughDistrict),
		}
	}
	return p
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (
			id, name, image, institutional_email, personal_email, class_year, post_grad_type,
			company, title, industry, school, program, discipline,
			country, state, city, borough_district, location_id,
			looking_for_roommate, is_onboarded, onboarding_step, visibility_options
		)
		VALUES (
			:id, :name, :image, :institutional_email, :personal_email, :class_year, :post_grad_type,
			:company, :title, :industry, :school, :program, :discipline,
			:country, :state, :city, :borough_district, :location_id,
			:looking_for_roommate, :is_onboarded, :onboarding_step, :visibility_options
		)
		RETURNING created_at, updated_at
	`
	rows, err := sqlx.NamedQueryContext(ctx, conn(ctx, r.db), query, toProfileRow(profile))
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	return rows.Scan(&profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) getOne(ctx context.Context, where string, arg interface{}) (*domain.Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` + where
	err := conn(ctx, r.db).GetContext(ctx, &row, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *profileRepository) GetByInstitutionalEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.getOne(ctx, `LOWER(institutional_email) = LOWER($1)`, email)
}

func (r *profileRepository) GetByPersonalEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.getOne(ctx, `LOWER(personal_email) = LOWER($1)`, email)
}

// Update rewrites every mutable column. The institutional email is never
// changed after creation.
func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE profiles
		SET name = :name, image = :image, personal_email = :personal_email, class_year = :class_year,
		    post_grad_type = :post_grad_type,
		    company = :company, title = :title, industry = :industry,
		    school = :school, program = :program, discipline = :discipline,
		    country = :country, state = :state, city = :city, borough_district = :borough_district,
		    location_id = :location_id, looking_for_roommate = :looking_for_roommate,
		    is_onboarded = :is_onboarded, onboarding_step = :onboarding_step,
		    visibility_options = :visibility_options,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = :id
		RETURNING updated_at
	`
	rows, err := sqlx.NamedQueryContext(ctx, conn(ctx, r.db), query, toProfileRow(profile))
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return domain.ErrProfileNotFound
	}
	return rows.Scan(&profile.UpdatedAt)
}

func (r *profileRepository) UpdateOnboardingProgress(ctx context.Context, id uuid.UUID, step domain.Step, postGradType domain.PostGradType) error {
	query := `
		UPDATE profiles
		SET onboarding_step = $1, post_grad_type = COALESCE($2, post_grad_type), updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, int(step), nullable(string(postGradType)), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// escapeLike escapes LIKE wildcards so search terms match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildDirectoryWhere turns a filter into a WHERE clause and its arguments.
func buildDirectoryWhere(filter domain.DirectoryFilter) (string, []interface{}) {
	where := `WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filter.OnboardedOnly {
		where += ` AND is_onboarded = true`
	}
	if filter.PostGradType != "" {
		where += fmt.Sprintf(" AND post_grad_type = $%d", argCount)
		args = append(args, string(filter.PostGradType))
		argCount++
	}
	if filter.Country != "" {
		where += fmt.Sprintf(" AND country = $%d", argCount)
		args = append(args, filter.Country)
		argCount++
	}
	if filter.State != "" {
		where += fmt.Sprintf(" AND state = $%d", argCount)
		args = append(args, filter.State)
		argCount++
	}
	if filter.City != "" {
		where += fmt.Sprintf(" AND city = $%d", argCount)
		args = append(args, filter.City)
		argCount++
	}
	if filter.LookingForRoommate {
		where += ` AND looking_for_roommate = true`
	}
	if filter.ClassYear != nil {
		where += fmt.Sprintf(" AND class_year = $%d", argCount)
		args = append(args, *filter.ClassYear)
		argCount++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR company ILIKE $%d OR school ILIKE $%d)", argCount, argCount, argCount)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	return where, args
}

func (r *profileRepository) List(ctx context.Context, filter domain.DirectoryFilter, limit, offset int) ([]*domain.Profile, int, error) {
	where, args := buildDirectoryWhere(filter)
	q := conn(ctx, r.db)

	var total int
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM profiles `+where, args...); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + profileColumns + ` FROM profiles ` + where +
		fmt.Sprintf(" ORDER BY name ASC, id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var rows []profileRow
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}

	profiles := make([]*domain.Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].toDomain())
	}
	return profiles, total, nil
}

// CountCompanies returns raw, case-sensitive company counts. Merging case
// variants happens in the stats use case.
func (r *profileRepository) CountCompanies(ctx context.Context, scope domain.StatsScope) ([]domain.GroupCount, error) {
	query := `
		SELECT company AS key, COUNT(*) AS count
		FROM profiles
		WHERE is_onboarded = true
		  AND company IS NOT NULL AND company <> ''
		  AND post_grad_type IN ('work', 'internship')`
	args := []interface{}{}
	if scope.ClassYear != nil {
		query += ` AND class_year = $1`
		args = append(args, *scope.ClassYear)
	}
	query += ` GROUP BY company ORDER BY count DESC, company ASC`

	var counts []domain.GroupCount
	err := conn(ctx, r.db).SelectContext(ctx, &counts, query, args...)
	return counts, err
}

func (r *profileRepository) CountSchools(ctx context.Context, scope domain.StatsScope, limit int) ([]domain.GroupCount, error) {
	query := `
		SELECT school AS key, COUNT(*) AS count
		FROM profiles
		WHERE is_onboarded = true
		  AND school IS NOT NULL AND school <> ''
		  AND post_grad_type = 'school'`
	args := []interface{}{}
	if scope.ClassYear != nil {
		query += ` AND class_year = $1`
		args = append(args, *scope.ClassYear)
	}
	query += fmt.Sprintf(" GROUP BY school ORDER BY count DESC, school ASC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	var counts []domain.GroupCount
	err := conn(ctx, r.db).SelectContext(ctx, &counts, query, args...)
	return counts, err
}
