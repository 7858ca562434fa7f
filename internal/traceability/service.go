package traceability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// MaxTraceDepth bounds how many levels of descendants a trace returns.
const MaxTraceDepth = 3

// maxAncestors caps the parent walk; a well-formed chain has one batch per stage.
const maxAncestors = 8

type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[BatchDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*BatchDTO, error)
	Create(ctx context.Context, actor audit.Actor, input CreateBatchInput) (*BatchDTO, error)
	Children(ctx context.Context, id uuid.UUID) ([]BatchDTO, error)
	Trace(ctx context.Context, id uuid.UUID) (*Trace, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo     *Repository
	TxRunner txRunner
	Audit    audit.Writer
	Clock    func() time.Time
}

type service struct {
	repo  *Repository
	tx    txRunner
	audit audit.Writer
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil || params.TxRunner == nil || params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "traceability service dependencies missing")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, tx: params.TxRunner, audit: params.Audit, now: clock}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[BatchDTO], error) {
	rows, limit, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[BatchDTO]{}, pagination.ListError(err, "list batches")
	}
	dtos := make([]BatchDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(d BatchDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*BatchDTO, error) {
	b, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	dto := toDTO(b)
	return &dto, nil
}

// Create records a batch. Raw batches come from a supplier; every later stage
// descends from a batch of exactly the previous stage.
func (s *service) Create(ctx context.Context, actor audit.Actor, input CreateBatchInput) (*BatchDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.BatchCode))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch_code is required")
	}
	if !input.Stage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown batch stage")
	}
	if input.Pieces < 0 || input.WeightKg.IsNegative() || input.AreaSqft.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantities cannot be negative")
	}
	prevStage, needsParent := input.Stage.Previous()
	if !needsParent {
		if input.ParentID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "raw batches cannot have a parent")
		}
		if input.SupplierID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "raw batches require a supplier")
		}
	} else if input.ParentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent_id is required for stage "+string(input.Stage))
	}

	processedAt := s.now()
	if input.ProcessedAt != nil {
		processedAt = input.ProcessedAt.UTC()
	}
	batch := &models.LeatherBatch{
		BatchCode:   code,
		Stage:       input.Stage,
		ParentID:    input.ParentID,
		SupplierID:  input.SupplierID,
		ProductID:   input.ProductID,
		Pieces:      input.Pieces,
		WeightKg:    input.WeightKg,
		AreaSqft:    input.AreaSqft,
		Grade:       input.Grade,
		Notes:       input.Notes,
		ProcessedAt: processedAt,
		CreatedBy:   actor.UserID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if needsParent {
			parent, err := repo.Find(ctx, *input.ParentID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "parent batch does not exist")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load parent batch")
			}
			if parent.Stage != prevStage {
				return pkgerrors.New(pkgerrors.CodeValidation, "parent batch must be at stage "+string(prevStage)).
					WithDetails(map[string]any{"parent_stage": parent.Stage})
			}
			if batch.SupplierID == nil {
				batch.SupplierID = parent.SupplierID
			}
		}
		if input.SupplierID != nil {
			ok, err := repo.SupplierExists(ctx, *input.SupplierID)
			if err := mustExist(ok, err, "supplier_id"); err != nil {
				return err
			}
		}
		if input.ProductID != nil {
			ok, err := repo.ProductExists(ctx, *input.ProductID)
			if err := mustExist(ok, err, "product_id"); err != nil {
				return err
			}
		}
		exists, err := repo.CodeExists(ctx, code)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check batch code")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "batch code already exists")
		}
		if err := repo.Create(ctx, batch); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "batch code already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create batch")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "batch.create",
			EntityType: audit.EntityBatch,
			EntityID:   batch.ID,
			Changes:    map[string]any{"batch_code": batch.BatchCode, "stage": batch.Stage, "parent_id": batch.ParentID},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audit")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(batch)
	return &dto, nil
}

func (s *service) Children(ctx context.Context, id uuid.UUID) ([]BatchDTO, error) {
	if _, err := s.repo.Find(ctx, id); err != nil {
		return nil, notFoundOr(err)
	}
	rows, err := s.repo.ChildrenOf(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load child batches")
	}
	out := make([]BatchDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Trace(ctx context.Context, id uuid.UUID) (*Trace, error) {
	batch, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}

	chain := []BatchDTO{toDTO(batch)}
	seen := map[uuid.UUID]struct{}{batch.ID: {}}
	cur := batch
	for cur.ParentID != nil && len(chain) < maxAncestors {
		if _, loop := seen[*cur.ParentID]; loop {
			break
		}
		parent, err := s.repo.Find(ctx, *cur.ParentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ancestor batch")
		}
		seen[parent.ID] = struct{}{}
		chain = append(chain, toDTO(parent))
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	descendants, err := s.descendants(ctx, batch.ID)
	if err != nil {
		return nil, err
	}
	return &Trace{Batch: toDTO(batch), Ancestors: chain, Descendants: descendants}, nil
}

// descendants loads the tree below root one level per query.
func (s *service) descendants(ctx context.Context, root uuid.UUID) ([]TraceNode, error) {
	byParent := map[uuid.UUID][]models.LeatherBatch{}
	frontier := []uuid.UUID{root}
	for depth := 0; depth < MaxTraceDepth && len(frontier) > 0; depth++ {
		rows, err := s.repo.ChildrenOf(ctx, frontier)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load descendant batches")
		}
		frontier = frontier[:0]
		for _, row := range rows {
			byParent[*row.ParentID] = append(byParent[*row.ParentID], row)
			frontier = append(frontier, row.ID)
		}
	}

	var build func(parent uuid.UUID) []TraceNode
	build = func(parent uuid.UUID) []TraceNode {
		children := byParent[parent]
		nodes := make([]TraceNode, 0, len(children))
		for i := range children {
			nodes = append(nodes, TraceNode{Batch: toDTO(&children[i]), Children: build(children[i].ID)})
		}
		return nodes
	}
	return build(root), nil
}

func mustExist(ok bool, err error, field string) error {
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check "+field)
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "referenced record does not exist").
			WithDetails(map[string]any{"field": field})
	}
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load batch")
}
