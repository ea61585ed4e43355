package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
	"github.com/ecoledesexcellents/ecole-ui/internal/domain/model"
	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
	"github.com/ecoledesexcellents/ecole-ui/internal/validation"
)

const academicRoot = "/academique/"

// StatsInvalidator drops cached statistics after a write changed the counts.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// AcademicServiceOptions groups dependencies shared by the academic services.
type AcademicServiceOptions struct {
	Backend ports.Backend
	// Stats is optional.
	Stats  StatsInvalidator
	Logger *slog.Logger
}

type academic struct {
	backend ports.Backend
	stats   StatsInvalidator
	logger  *slog.Logger
}

func newAcademic(opts AcademicServiceOptions, component string) academic {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return academic{backend: opts.Backend, stats: opts.Stats, logger: logger.With("component", component)}
}

func (a academic) changed(ctx context.Context) {
	if a.stats != nil {
		a.stats.Invalidate(ctx)
	}
}

func collectionPath(name string) string { return academicRoot + name + "/" }

func itemPath(name string, id int) string {
	return academicRoot + name + "/" + strconv.Itoa(id) + "/"
}

func checkID(id int) error {
	if id <= 0 {
		return apperrors.ValidationField("id", "identifiant invalide")
	}
	return nil
}

// CoursService manages courses.
type CoursService struct{ academic }

// NewCoursService constructs a CoursService.
func NewCoursService(opts AcademicServiceOptions) *CoursService {
	return &CoursService{newAcademic(opts, "cours")}
}

// List returns every course.
func (s *CoursService) List(ctx context.Context) ([]model.Cours, error) {
	var out []model.Cours
	if err := s.backend.GetJSON(ctx, collectionPath("cours"), nil, &out); err != nil {
		return nil, fmt.Errorf("list cours: %w", err)
	}
	return out, nil
}

// Get returns one course.
func (s *CoursService) Get(ctx context.Context, id int) (*model.Cours, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var out model.Cours
	if err := s.backend.GetJSON(ctx, itemPath("cours", id), nil, &out); err != nil {
		return nil, fmt.Errorf("get cours %d: %w", id, err)
	}
	return &out, nil
}

// Create validates and creates a course.
func (s *CoursService) Create(ctx context.Context, in model.CoursInput) (*model.Cours, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out model.Cours
	if err := s.backend.SendJSON(ctx, http.MethodPost, collectionPath("cours"), in, &out); err != nil {
		return nil, fmt.Errorf("create cours: %w", err)
	}
	s.logger.InfoContext(ctx, "cours created", "id", out.ID, "titre", out.Titre)
	s.changed(ctx)
	return &out, nil
}

// Update replaces a course.
func (s *CoursService) Update(ctx context.Context, id int, in model.CoursInput) (*model.Cours, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out model.Cours
	if err := s.backend.SendJSON(ctx, http.MethodPut, itemPath("cours", id), in, &out); err != nil {
		return nil, fmt.Errorf("update cours %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "cours updated", "id", id)
	return &out, nil
}

// Delete removes a course.
func (s *CoursService) Delete(ctx context.Context, id int) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.backend.SendJSON(ctx, http.MethodDelete, itemPath("cours", id), nil, nil); err != nil {
		return fmt.Errorf("delete cours %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "cours deleted", "id", id)
	s.changed(ctx)
	return nil
}

// MemberService manages encadreur, étudiant and coordinateur accounts.
type MemberService struct{ academic }

// NewMemberService constructs a MemberService.
func NewMemberService(opts AcademicServiceOptions) *MemberService {
	return &MemberService{newAcademic(opts, "members")}
}

func checkKind(kind model.MemberKind) error {
	if !kind.Valid() {
		return apperrors.ValidationField("kind", fmt.Sprintf("type de membre inconnu: %q", kind))
	}
	return nil
}

// List returns every member of kind.
func (s *MemberService) List(ctx context.Context, kind model.MemberKind) ([]model.Member, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	var out []model.Member
	if err := s.backend.GetJSON(ctx, collectionPath(string(kind)), nil, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return out, nil
}

// Get returns one member.
func (s *MemberService) Get(ctx context.Context, kind model.MemberKind, id int) (*model.Member, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	var out model.Member
	if err := s.backend.GetJSON(ctx, itemPath(string(kind), id), nil, &out); err != nil {
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return &out, nil
}

// Create validates and creates a member. The username defaults to the first
// name and the password is only sent when given.
func (s *MemberService) Create(ctx context.Context, kind model.MemberKind, in model.CreateMemberInput) (*model.Member, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out model.Member
	if err := s.backend.SendJSON(ctx, http.MethodPost, collectionPath(string(kind)), in, &out); err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	s.logger.InfoContext(ctx, "member created", "kind", kind, "id", out.ID, "username", in.Username)
	s.changed(ctx)
	return &out, nil
}

// Update patches a member.
func (s *MemberService) Update(ctx context.Context, kind model.MemberKind, id int, in model.UpdateMemberInput) (*model.Member, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out model.Member
	if err := s.backend.SendJSON(ctx, http.MethodPatch, itemPath(string(kind), id), in, &out); err != nil {
		return nil, fmt.Errorf("update %s %d: %w", kind, id, err)
	}
	s.logger.InfoContext(ctx, "member updated", "kind", kind, "id", id)
	s.changed(ctx)
	return &out, nil
}

// Delete removes a member.
func (s *MemberService) Delete(ctx context.Context, kind model.MemberKind, id int) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.backend.SendJSON(ctx, http.MethodDelete, itemPath(string(kind), id), nil, nil); err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	s.logger.InfoContext(ctx, "member deleted", "kind", kind, "id", id)
	s.changed(ctx)
	return nil
}

// PromotionService lists cohorts.
type PromotionService struct{ academic }

// NewPromotionService constructs a PromotionService.
func NewPromotionService(opts AcademicServiceOptions) *PromotionService {
	return &PromotionService{newAcademic(opts, "promotions")}
}

// List returns every promotion.
func (s *PromotionService) List(ctx context.Context) ([]domainauth.Promotion, error) {
	var out []domainauth.Promotion
	if err := s.backend.GetJSON(ctx, collectionPath("promotions"), nil, &out); err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	return out, nil
}

// HoraireService manages schedule entries.
type HoraireService struct{ academic }

// NewHoraireService constructs a HoraireService.
func NewHoraireService(opts AcademicServiceOptions) *HoraireService {
	return &HoraireService{newAcademic(opts, "horaires")}
}

func validateHoraire(in model.HoraireInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.DateFin != nil && in.DateFin.Before(in.DateDebut) {
		return apperrors.ValidationField("date_fin", "date_fin doit être postérieure à date_debut")
	}
	return nil
}

// List returns every schedule entry.
func (s *HoraireService) List(ctx context.Context) ([]model.Horaire, error) {
	var out []model.Horaire
	if err := s.backend.GetJSON(ctx, collectionPath("horaires"), nil, &out); err != nil {
		return nil, fmt.Errorf("list horaires: %w", err)
	}
	return out, nil
}

// Get returns one schedule entry.
func (s *HoraireService) Get(ctx context.Context, id int) (*model.Horaire, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var out model.Horaire
	if err := s.backend.GetJSON(ctx, itemPath("horaires", id), nil, &out); err != nil {
		return nil, fmt.Errorf("get horaire %d: %w", id, err)
	}
	return &out, nil
}

// Create validates and creates a schedule entry.
func (s *HoraireService) Create(ctx context.Context, in model.HoraireInput) (*model.Horaire, error) {
	if err := validateHoraire(in); err != nil {
		return nil, err
	}
	var out model.Horaire
	if err := s.backend.SendJSON(ctx, http.MethodPost, collectionPath("horaires"), in, &out); err != nil {
		return nil, fmt.Errorf("create horaire: %w", err)
	}
	s.logger.InfoContext(ctx, "horaire created", "id", out.ID)
	s.changed(ctx)
	return &out, nil
}

// Update replaces a schedule entry.
func (s *HoraireService) Update(ctx context.Context, id int, in model.HoraireInput) (*model.Horaire, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := validateHoraire(in); err != nil {
		return nil, err
	}
	var out model.Horaire
	if err := s.backend.SendJSON(ctx, http.MethodPut, itemPath("horaires", id), in, &out); err != nil {
		return nil, fmt.Errorf("update horaire %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "horaire updated", "id", id)
	s.changed(ctx)
	return &out, nil
}

// Delete removes a schedule entry.
func (s *HoraireService) Delete(ctx context.Context, id int) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.backend.SendJSON(ctx, http.MethodDelete, itemPath("horaires", id), nil, nil); err != nil {
		return fmt.Errorf("delete horaire %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "horaire deleted", "id", id)
	s.changed(ctx)
	return nil
}
