package hierarchy

import (
	"context"
	"errors"

	hierarchyerrors "go-leave-engine/internal/hierarchy/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxChainDepth bounds both graph walks. Org charts deeper than this are
// treated as cyclic.
const MaxChainDepth = 10

//go:generate mockgen -source=hierarchy_service.go -destination=mock/hierarchy_service_mock.go -package=mock
type Service interface {
	// ResolveChain returns the ordered candidate approvers for an
	// employee: manager chain first, org-unit heads second, company HR
	// fallback as guaranteed tail. Never contains duplicates or the
	// requester.
	ResolveChain(ctx context.Context, companyID, employeeID string) ([]uuid.UUID, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("hierarchy.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("hierarchy.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) ResolveChain(ctx context.Context, companyID, employeeID string) ([]uuid.UUID, error) {
	requester, err := s.repo.GetEmployeeNode(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, hierarchyerrors.ErrEmployeeNotFound
		}
		return nil, err
	}

	chain := make([]uuid.UUID, 0, 4)
	inChain := make(map[uuid.UUID]bool)
	appendApprover := func(id uuid.UUID) {
		if id == requester.ID || inChain[id] {
			return
		}
		inChain[id] = true
		chain = append(chain, id)
	}

	// Manager walk. The visited set guards against cyclic manager links,
	// which do occur in real data.
	visited := map[uuid.UUID]bool{requester.ID: true}
	current := requester
	for depth := 0; depth < MaxChainDepth && current.ManagerID != nil; depth++ {
		managerID := *current.ManagerID
		if visited[managerID] {
			s.logger.Warn("manager chain cycle detected",
				zap.String("company_id", companyID),
				zap.String("employee_id", employeeID),
				zap.String("manager_id", managerID.String()),
			)
			break
		}
		visited[managerID] = true
		appendApprover(managerID)

		next, err := s.repo.GetEmployeeNode(ctx, companyID, managerID.String())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, err
		}
		current = next
	}

	// Org-unit walk, bottom-up from the requester's unit.
	if requester.OrgUnitID != nil {
		visitedUnits := make(map[uuid.UUID]bool)
		unitID := requester.OrgUnitID
		for depth := 0; depth < MaxChainDepth && unitID != nil; depth++ {
			if visitedUnits[*unitID] {
				s.logger.Warn("org unit cycle detected",
					zap.String("company_id", companyID),
					zap.String("org_unit_id", unitID.String()),
				)
				break
			}
			visitedUnits[*unitID] = true

			unit, err := s.repo.GetOrgUnitNode(ctx, companyID, unitID.String())
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					break
				}
				return nil, err
			}
			if unit.HeadID != nil {
				appendApprover(*unit.HeadID)
			}
			unitID = unit.ParentID
		}
	}

	// HR fallback as guaranteed tail.
	fallback, err := s.repo.GetFallbackApprover(ctx, companyID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if fallback != nil {
		appendApprover(*fallback)
	}

	if len(chain) == 0 {
		return nil, hierarchyerrors.ErrNoApproverAvailable
	}

	return chain, nil
}
