package hierarchy_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"go-leave-engine/internal/hierarchy"
	hierarchyerrors "go-leave-engine/internal/hierarchy/errors"
)

type fakeHierarchyRepo struct {
	employees map[string]*hierarchy.EmployeeNode
	orgUnits  map[string]*hierarchy.OrgUnitNode
	fallback  *uuid.UUID
}

func (f *fakeHierarchyRepo) GetEmployeeNode(_ context.Context, _, employeeID string) (*hierarchy.EmployeeNode, error) {
	node, ok := f.employees[employeeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return node, nil
}

func (f *fakeHierarchyRepo) GetOrgUnitNode(_ context.Context, _, unitID string) (*hierarchy.OrgUnitNode, error) {
	node, ok := f.orgUnits[unitID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return node, nil
}

func (f *fakeHierarchyRepo) GetFallbackApprover(_ context.Context, _ string) (*uuid.UUID, error) {
	if f.fallback == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.fallback, nil
}

func emp(id uuid.UUID, manager, orgUnit *uuid.UUID) *hierarchy.EmployeeNode {
	return &hierarchy.EmployeeNode{ID: id, ManagerID: manager, OrgUnitID: orgUnit}
}

func TestResolveChain_ManagerWalkWithFallback(t *testing.T) {
	requester := uuid.New()
	manager := uuid.New()
	director := uuid.New()
	hr := uuid.New()

	repo := &fakeHierarchyRepo{
		employees: map[string]*hierarchy.EmployeeNode{
			requester.String(): emp(requester, &manager, nil),
			manager.String():   emp(manager, &director, nil),
			director.String():  emp(director, nil, nil),
		},
		fallback: &hr,
	}
	svc := hierarchy.NewService(repo)

	chain, err := svc.ResolveChain(context.Background(), "company-1", requester.String())
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{manager, director, hr}, chain)
}

func TestResolveChain_CycleTerminates(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	hr := uuid.New()

	// a -> b -> c -> a: the walk must stop instead of spinning.
	repo := &fakeHierarchyRepo{
		employees: map[string]*hierarchy.EmployeeNode{
			a.String(): emp(a, &b, nil),
			b.String(): emp(b, &c, nil),
			c.String(): emp(c, &a, nil),
		},
		fallback: &hr,
	}
	svc := hierarchy.NewService(repo)

	chain, err := svc.ResolveChain(context.Background(), "company-1", a.String())
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b, c, hr}, chain)
}

func TestResolveChain_ExcludesRequesterAndDeduplicates(t *testing.T) {
	requester := uuid.New()
	manager := uuid.New()
	unit := uuid.New()
	parentUnit := uuid.New()

	// The requester heads their own unit and the manager also heads the
	// parent unit; neither may appear twice and the requester never
	// approves their own request.
	repo := &fakeHierarchyRepo{
		employees: map[string]*hierarchy.EmployeeNode{
			requester.String(): emp(requester, &manager, &unit),
			manager.String():   emp(manager, nil, nil),
		},
		orgUnits: map[string]*hierarchy.OrgUnitNode{
			unit.String():       {ID: unit, ParentID: &parentUnit, HeadID: &requester},
			parentUnit.String(): {ID: parentUnit, HeadID: &manager},
		},
	}
	svc := hierarchy.NewService(repo)

	chain, err := svc.ResolveChain(context.Background(), "company-1", requester.String())
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{manager}, chain)
}

func TestResolveChain_OrgUnitCycleTerminates(t *testing.T) {
	requester := uuid.New()
	unitA := uuid.New()
	unitB := uuid.New()
	headA := uuid.New()
	headB := uuid.New()

	repo := &fakeHierarchyRepo{
		employees: map[string]*hierarchy.EmployeeNode{
			requester.String(): emp(requester, nil, &unitA),
		},
		orgUnits: map[string]*hierarchy.OrgUnitNode{
			unitA.String(): {ID: unitA, ParentID: &unitB, HeadID: &headA},
			unitB.String(): {ID: unitB, ParentID: &unitA, HeadID: &headB},
		},
	}
	svc := hierarchy.NewService(repo)

	chain, err := svc.ResolveChain(context.Background(), "company-1", requester.String())
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{headA, headB}, chain)
}

func TestResolveChain_NoApprover(t *testing.T) {
	requester := uuid.New()

	repo := &fakeHierarchyRepo{
		employees: map[string]*hierarchy.EmployeeNode{
			requester.String(): emp(requester, nil, nil),
		},
	}
	svc := hierarchy.NewService(repo)

	_, err := svc.ResolveChain(context.Background(), "company-1", requester.String())
	assert.ErrorIs(t, err, hierarchyerrors.ErrNoApproverAvailable)
}

func TestResolveChain_UnknownEmployee(t *testing.T) {
	repo := &fakeHierarchyRepo{employees: map[string]*hierarchy.EmployeeNode{}}
	svc := hierarchy.NewService(repo)

	_, err := svc.ResolveChain(context.Background(), "company-1", uuid.NewString())
	assert.ErrorIs(t, err, hierarchyerrors.ErrEmployeeNotFound)
}
