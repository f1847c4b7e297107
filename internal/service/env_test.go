package service

import (
	"context"
	"sync"
	"testing"

	"copycorner/internal/metrics"
	"copycorner/internal/model"
	"copycorner/internal/pkg/clock"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testActor = "00000000-0000-0000-0000-000000000001"

type publishedEvent struct {
	Name string
	Data interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Name: event, Data: data})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

// testEnv wires every service the way cmd/api does, over one memStore.
type testEnv struct {
	store   *memStore
	clock   *clock.MockClock
	events  *recordingPublisher
	metrics *metrics.Metrics

	allocator CodeAllocator
	resolver  DependencyResolver
	lifecycle Lifecycle
	stock     StockService

	categories   CategoryService
	products     ProductService
	serviceTypes ServiceTypeService
	groups       GroupService
	users        UserService
	staff        StaffService
	schedules    ScheduleService
	transactions TransactionService
	reports      ReportService
	audits       AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := newMemStore()
	clk := clock.NewMockClock(storeEpoch)
	events := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())

	txManager := &memTxManager{s: s}
	lifecycleRepo := &memLifecycleRepo{s: s}
	auditRepo := &memAuditRepo{s: s}
	productRepo := &memProductRepo{s: s}
	serviceTypeRepo := &memServiceTypeRepo{s: s}
	userRepo := &memUserRepo{s: s}
	staffRepo := &memStaffRepo{s: s}

	allocator := NewCodeAllocator(&memSequenceRepo{s: s}, txManager)
	resolver := NewDependencyResolver(&memDependencyRepo{s: s})
	lifecycle := NewLifecycle(lifecycleRepo, auditRepo, txManager, resolver, allocator, clk, events, m)
	stock := NewStockService(productRepo, &memMovementRepo{s: s}, txManager, clk, m)

	return &testEnv{
		store:     s,
		clock:     clk,
		events:    events,
		metrics:   m,
		allocator: allocator,
		resolver:  resolver,
		lifecycle: lifecycle,
		stock:     stock,

		categories: NewCategoryService(&memCategoryRepo{s: s}, lifecycleRepo, auditRepo, txManager, resolver, lifecycle, clk),
		products: NewProductService(productRepo, lifecycleRepo, auditRepo, txManager, allocator, lifecycle, stock, clk, events,
			ProductSettings{DefaultMinimumStock: 5}),
		serviceTypes: NewServiceTypeService(serviceTypeRepo, productRepo, lifecycleRepo, auditRepo, txManager, allocator, resolver, lifecycle, clk,
			ServiceTypeSettings{PaperServices: []string{"Printing", "Photocopy"}}),
		groups:       NewGroupService(&memGroupRepo{s: s}, lifecycleRepo, auditRepo, txManager, resolver, lifecycle, clk),
		users:        NewUserService(userRepo, lifecycleRepo, auditRepo, txManager, resolver, lifecycle, NewBcryptHasher(bcrypt.MinCost), clk),
		staff:        NewStaffService(staffRepo, userRepo, auditRepo, txManager, clk),
		schedules:    NewScheduleService(&memScheduleRepo{s: s}, staffRepo, lifecycleRepo, auditRepo, txManager, clk),
		transactions: NewTransactionService(&memTransactionRepo{s: s}, serviceTypeRepo, lifecycleRepo, auditRepo, txManager, allocator, lifecycle, stock, clk, events),
		reports:      NewReportService(&memReportRepo{s: s}),
		audits:       NewAuditService(auditRepo),
	}
}

func ptr[T any](v T) *T { return &v }

func (e *testEnv) category(t *testing.T, name string) *CategoryResponse {
	t.Helper()
	c, err := e.categories.Create(context.Background(), testActor, CategoryRequest{Name: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) product(t *testing.T, name string, categoryID *string, stock, minimum int) *ProductResponse {
	t.Helper()
	p, err := e.products.Create(context.Background(), testActor, CreateProductRequest{
		Name:          name,
		CategoryID:    categoryID,
		StockQuantity: stock,
		MinimumStock:  &minimum,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) serviceType(t *testing.T, name string, categoryID *string) *ServiceTypeResponse {
	t.Helper()
	st, err := e.serviceTypes.Create(context.Background(), testActor, ServiceTypeRequest{Name: name, CategoryID: categoryID})
	require.NoError(t, err)
	return st
}

func (e *testEnv) group(t *testing.T, name string, level int) *GroupResponse {
	t.Helper()
	g, err := e.groups.Create(context.Background(), testActor, GroupRequest{Name: name, Level: &level})
	require.NoError(t, err)
	return g
}

func (e *testEnv) user(t *testing.T, username string, groupID *string) *UserResponse {
	t.Helper()
	u, err := e.users.Create(context.Background(), testActor, CreateUserRequest{
		Name:     username,
		Username: username,
		Password: "secret123",
		GroupID:  groupID,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) stockOf(t *testing.T, productID string) (int, model.StockStatus) {
	t.Helper()
	p, err := e.products.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity, p.Status
}
