package aggregates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/resourcehub-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/resourcehub-backend/internal/data/aggregates/testutil"
	types "github.com/yungbote/resourcehub-backend/internal/domain"
	domainagg "github.com/yungbote/resourcehub-backend/internal/domain/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/domain/jobs"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
)

type fakeResolver struct {
	categoryID int64
	tagIDs     []int64
	err        error
	tagCalls   int
}

func (f *fakeResolver) Contract() domainagg.Contract { return domainagg.TaxonomyResolverContract }

func (f *fakeResolver) ResolveCategory(_ dbctx.Context, ref domainagg.CategoryRef) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if ref.Resolved() {
		return ref.ID, nil
	}
	return f.categoryID, nil
}

func (f *fakeResolver) ResolveTags(_ dbctx.Context, _ int64, _ []domainagg.TagRef) ([]int64, error) {
	f.tagCalls++
	return f.tagIDs, nil
}

type fakeResourceRepo struct {
	rows    map[int64]*types.Resource
	nextID  int64
	dupURL  bool
	updates []map[string]interface{}
	deleted int64
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{rows: map[int64]*types.Resource{}, nextID: 1}
}

func (f *fakeResourceRepo) Create(_ dbctx.Context, row *types.Resource) (*types.Resource, error) {
	row.ID = f.nextID
	f.nextID++
	cp := *row
	f.rows[row.ID] = &cp
	return row, nil
}

func (f *fakeResourceRepo) GetByID(_ dbctx.Context, id int64) (*types.Resource, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeResourceRepo) LockByID(dbc dbctx.Context, id int64) (*types.Resource, error) {
	return f.GetByID(dbc, id)
}

func (f *fakeResourceRepo) ExistsByOwnerURL(dbctx.Context, uuid.UUID, string, int64) (bool, error) {
	return f.dupURL, nil
}

func (f *fakeResourceRepo) UpdateFields(_ dbctx.Context, id int64, updates map[string]interface{}) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	f.updates = append(f.updates, updates)
	row := f.rows[id]
	if v, ok := updates["name"].(string); ok {
		row.Name = v
	}
	if v, ok := updates["url"].(string); ok {
		row.URL = v
	}
	if v, ok := updates["category_id"].(int64); ok {
		row.CategoryID = v
	}
	return 1, nil
}

func (f *fakeResourceRepo) DeleteByIDsForOwner(_ dbctx.Context, ids []int64, owner uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if row, ok := f.rows[id]; ok && row.OwnerID == owner {
			delete(f.rows, id)
			n++
		}
	}
	f.deleted += n
	return n, nil
}

func (f *fakeResourceRepo) IncrementViewCount(dbctx.Context, int64) (bool, error)   { return true, nil }
func (f *fakeResourceRepo) CountOwnedBy(dbctx.Context, uuid.UUID) (int64, error)     { return 0, nil }
func (f *fakeResourceRepo) ListIDsAfter(dbctx.Context, int64, int) ([]int64, error) { return nil, nil }

type fakeResourceTagRepo struct {
	associated map[int64][]int64
	removed    []int64
}

func (f *fakeResourceTagRepo) Associate(_ dbctx.Context, resourceID int64, tagIDs []int64) (int64, error) {
	if f.associated == nil {
		f.associated = map[int64][]int64{}
	}
	f.associated[resourceID] = append(f.associated[resourceID], tagIDs...)
	return int64(len(tagIDs)), nil
}

func (f *fakeResourceTagRepo) DeleteByTagIDs(_ dbctx.Context, _ int64, tagIDs []int64) (int64, error) {
	f.removed = append(f.removed, tagIDs...)
	return int64(len(tagIDs)), nil
}

func (f *fakeResourceTagRepo) TagIDsForResource(_ dbctx.Context, resourceID int64) ([]int64, error) {
	return f.associated[resourceID], nil
}

type fakeOwnerRepo struct {
	owners map[int64]map[uuid.UUID]bool
}

func (f *fakeOwnerRepo) Link(_ dbctx.Context, resourceID int64, userID uuid.UUID) error {
	if f.owners == nil {
		f.owners = map[int64]map[uuid.UUID]bool{}
	}
	if f.owners[resourceID] == nil {
		f.owners[resourceID] = map[uuid.UUID]bool{}
	}
	f.owners[resourceID][userID] = true
	return nil
}

func (f *fakeOwnerRepo) Unlink(_ dbctx.Context, ids []int64, userID uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if f.owners[id][userID] {
			delete(f.owners[id], userID)
			n++
		}
	}
	return n, nil
}

func (f *fakeOwnerRepo) IsOwner(_ dbctx.Context, resourceID int64, userID uuid.UUID) (bool, error) {
	return f.owners[resourceID][userID], nil
}

type fakeVectorTasks struct {
	ops [][2]interface{}
}

func (f *fakeVectorTasks) Enqueue(_ dbctx.Context, op string, ids []int64) (*types.VectorSyncTask, error) {
	f.ops = append(f.ops, [2]interface{}{op, ids})
	return &types.VectorSyncTask{ID: uuid.New(), Op: op}, nil
}
func (f *fakeVectorTasks) GetByID(dbctx.Context, uuid.UUID) (*types.VectorSyncTask, error) {
	return nil, nil
}
func (f *fakeVectorTasks) ClaimNextRunnable(dbctx.Context, time.Duration) (*types.VectorSyncTask, error) {
	return nil, nil
}
func (f *fakeVectorTasks) MarkDone(dbctx.Context, uuid.UUID) error { return nil }
func (f *fakeVectorTasks) MarkFailed(dbctx.Context, uuid.UUID, int, int, time.Time, error) (bool, error) {
	return false, nil
}
func (f *fakeVectorTasks) CountByStatus(dbctx.Context) (map[string]int64, error) { return nil, nil }

type resourceFixture struct {
	agg       domainagg.ResourceAggregate
	runner    *aggtest.FakeTx
	hooks     *aggtest.RecordingHooks
	resolver  *fakeResolver
	resources *fakeResourceRepo
	tags      *fakeResourceTagRepo
	owners    *fakeOwnerRepo
	tasks     *fakeVectorTasks
}

func newResourceFixture() *resourceFixture {
	f := &resourceFixture{
		runner:    &aggtest.FakeTx{},
		hooks:     &aggtest.RecordingHooks{},
		resolver:  &fakeResolver{categoryID: 7, tagIDs: []int64{11, 12}},
		resources: newFakeResourceRepo(),
		tags:      &fakeResourceTagRepo{},
		owners:    &fakeOwnerRepo{},
		tasks:     &fakeVectorTasks{},
	}
	f.agg = aggregates.NewResourceAggregate(aggregates.ResourceAggregateDeps{
		Base:         aggregates.BaseDeps{Runner: f.runner, Hooks: f.hooks},
		Taxonomy:     f.resolver,
		Resources:    f.resources,
		ResourceTags: f.tags,
		Owners:       f.owners,
		VectorTasks:  f.tasks,
	})
	return f
}

func TestCreateResourceWritesRowTagsOwnerAndOutbox(t *testing.T) {
	f := newResourceFixture()
	owner := uuid.New()

	row, err := f.agg.CreateResource(context.Background(), domainagg.CreateResourceInput{
		OwnerID:     owner,
		Category:    domainagg.CategoryByName("Tools"),
		Tags:        domainagg.TagNames("go", "cli"),
		Name:        "  ripgrep ",
		URL:         "https://github.com/BurntSushi/ripgrep",
		SyncVectors: true,
	})
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if row.Name != "ripgrep" || row.CategoryID != 7 || row.ViewCount != 0 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if got := f.tags.associated[row.ID]; len(got) != 2 {
		t.Fatalf("tag associations: %v", got)
	}
	if ok, _ := f.owners.IsOwner(dbctx.Context{}, row.ID, owner); !ok {
		t.Fatalf("owner link missing")
	}
	if len(f.tasks.ops) != 1 || f.tasks.ops[0][0] != jobs.VectorSyncOpUpsert {
		t.Fatalf("outbox: %+v", f.tasks.ops)
	}
	if f.runner.Commits != 1 {
		t.Fatalf("commit calls: %d", f.runner.Commits)
	}
}

func TestCreateResourceValidation(t *testing.T) {
	cases := []struct {
		name  string
		in    domainagg.CreateResourceInput
		field string
	}{
		{"missing name", domainagg.CreateResourceInput{URL: "https://a", Category: domainagg.CategoryByID(1)}, "name"},
		{"missing url", domainagg.CreateResourceInput{Name: "a", Category: domainagg.CategoryByID(1)}, "url"},
		{"missing category", domainagg.CreateResourceInput{Name: "a", URL: "https://a"}, "category"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newResourceFixture()
			tc.in.OwnerID = uuid.New()
			_, err := f.agg.CreateResource(context.Background(), tc.in)
			if !domainagg.IsCode(err, domainagg.CodeValidation) {
				t.Fatalf("expected validation, got %v", err)
			}
			fields := domainagg.FieldsOf(err)
			if len(fields) != 1 || fields[0] != tc.field {
				t.Fatalf("fields: %v", fields)
			}
			if f.runner.Begins != 0 {
				t.Fatalf("transaction should not start")
			}
		})
	}
}

func TestCreateResourceDuplicateURLIsConflict(t *testing.T) {
	f := newResourceFixture()
	f.resources.dupURL = true
	_, err := f.agg.CreateResource(context.Background(), domainagg.CreateResourceInput{
		OwnerID:  uuid.New(),
		Category: domainagg.CategoryByID(3),
		Name:     "dup",
		URL:      "https://dup.example",
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if fields := domainagg.FieldsOf(err); len(fields) != 1 || fields[0] != "url" {
		t.Fatalf("fields: %v", fields)
	}
	if len(f.resources.rows) != 0 || f.runner.Rollbacks != 1 {
		t.Fatalf("expected rollback with no rows")
	}
	if len(f.hooks.Conflicts) != 1 {
		t.Fatalf("conflict hook: %v", f.hooks.Conflicts)
	}
}

func TestCreateResourceResolverFailureRollsBack(t *testing.T) {
	f := newResourceFixture()
	f.resolver.err = errors.New("boom")
	_, err := f.agg.CreateResource(context.Background(), domainagg.CreateResourceInput{
		OwnerID:  uuid.New(),
		Category: domainagg.CategoryByName("x"),
		Name:     "n",
		URL:      "https://n",
	})
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal, got %v", err)
	}
	if f.runner.Rollbacks != 1 || len(f.tasks.ops) != 0 {
		t.Fatalf("expected rollback without outbox rows")
	}
}

func TestUpdateResourceNonOwnerIsNotFound(t *testing.T) {
	f := newResourceFixture()
	owner := uuid.New()
	row, err := f.agg.CreateResource(context.Background(), domainagg.CreateResourceInput{
		OwnerID: owner, Category: domainagg.CategoryByID(1), Name: "a", URL: "https://a",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	name := "b"
	_, err = f.agg.UpdateResource(context.Background(), domainagg.UpdateResourceInput{
		ResourceID: row.ID,
		ActorID:    uuid.New(),
		Fields:     domainagg.ResourceFields{Name: &name},
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}

	updated, err := f.agg.UpdateResource(context.Background(), domainagg.UpdateResourceInput{
		ResourceID: row.ID,
		ActorID:    uuid.New(),
		Privileged: true,
		Fields:     domainagg.ResourceFields{Name: &name},
	})
	if err != nil {
		t.Fatalf("privileged update: %v", err)
	}
	if updated.Name != "b" {
		t.Fatalf("name: %q", updated.Name)
	}
}

func TestUpdateResourceMissingRow(t *testing.T) {
	f := newResourceFixture()
	_, err := f.agg.UpdateResource(context.Background(), domainagg.UpdateResourceInput{
		ResourceID: 404,
		ActorID:    uuid.New(),
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestUpdateResourceTagsAndCategory(t *testing.T) {
	f := newResourceFixture()
	owner := uuid.New()
	row, err := f.agg.CreateResource(context.Background(), domainagg.CreateResourceInput{
		OwnerID: owner, Category: domainagg.CategoryByID(1), Name: "a", URL: "https://a",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.resolver.tagIDs = []int64{21}
	f.resolver.tagCalls = 0
	cat := domainagg.CategoryByID(9)

	updated, err := f.agg.UpdateResource(context.Background(), domainagg.UpdateResourceInput{
		ResourceID:  row.ID,
		ActorID:     owner,
		Category:    &cat,
		Tags:        domainagg.TagDiff{Add: domainagg.TagNames("new"), Delete: []int64{11}},
		SyncVectors: true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CategoryID != 9 {
		t.Fatalf("category: %d", updated.CategoryID)
	}
	if len(f.tags.removed) != 1 || f.tags.removed[0] != 11 {
		t.Fatalf("removed: %v", f.tags.removed)
	}
	if f.resolver.tagCalls != 1 {
		t.Fatalf("tag resolve calls: %d", f.resolver.tagCalls)
	}
	last := f.tasks.ops[len(f.tasks.ops)-1]
	if last[0] != jobs.VectorSyncOpUpdate {
		t.Fatalf("outbox op: %v", last[0])
	}
}

func TestUpdateResourceTagOnlyBumpsUpdatedAt(t *testing.T) {
	f := newResourceFixture()
	owner := uuid.New()
	row, _ := f.agg.CreateResource(context.Background(), domainagg.CreateResourceInput{
		OwnerID: owner, Category: domainagg.CategoryByID(1), Name: "a", URL: "https://a",
	})
	_, err := f.agg.UpdateResource(context.Background(), domainagg.UpdateResourceInput{
		ResourceID: row.ID,
		ActorID:    owner,
		Tags:       domainagg.TagDiff{Delete: []int64{11}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(f.resources.updates) != 1 {
		t.Fatalf("updates: %v", f.resources.updates)
	}
	if _, ok := f.resources.updates[0]["updated_at"]; !ok {
		t.Fatalf("expected updated_at in %v", f.resources.updates[0])
	}
}

func TestUpdateResourceRejectsBlankName(t *testing.T) {
	f := newResourceFixture()
	blank := "   "
	_, err := f.agg.UpdateResource(context.Background(), domainagg.UpdateResourceInput{
		ResourceID: 1,
		ActorID:    uuid.New(),
		Fields:     domainagg.ResourceFields{Name: &blank},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}

func TestDeleteResourcesSoftUnlinksCallerOnly(t *testing.T) {
	f := newResourceFixture()
	owner := uuid.New()
	other := uuid.New()
	row, _ := f.agg.CreateResource(context.Background(), domainagg.CreateResourceInput{
		OwnerID: owner, Category: domainagg.CategoryByID(1), Name: "a", URL: "https://a",
	})
	_ = f.owners.Link(dbctx.Context{}, row.ID, other)

	res, err := f.agg.DeleteResources(context.Background(), domainagg.DeleteResourcesInput{
		IDs: []int64{row.ID}, OwnerID: owner, Mode: domainagg.DeleteModeSoft, SyncVectors: true,
	})
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if res.Affected != 1 || len(res.IDs) != 1 {
		t.Fatalf("result: %+v", res)
	}
	if _, ok := f.resources.rows[row.ID]; !ok {
		t.Fatalf("soft delete must keep the row")
	}
	if ok, _ := f.owners.IsOwner(dbctx.Context{}, row.ID, other); !ok {
		t.Fatalf("other owner link removed")
	}
	if len(f.tasks.ops) != 0 {
		t.Fatalf("soft delete should not enqueue vector work: %v", f.tasks.ops)
	}
}

func TestDeleteResourcesHardIsIdempotent(t *testing.T) {
	f := newResourceFixture()
	owner := uuid.New()
	row, _ := f.agg.CreateResource(context.Background(), domainagg.CreateResourceInput{
		OwnerID: owner, Category: domainagg.CategoryByID(1), Name: "a", URL: "https://a",
	})
	in := domainagg.DeleteResourcesInput{
		IDs: []int64{row.ID, row.ID}, OwnerID: owner, Mode: domainagg.DeleteModeHard, SyncVectors: true,
	}

	first, err := f.agg.DeleteResources(context.Background(), in)
	if err != nil {
		t.Fatalf("first delete: %v", err)
	}
	second, err := f.agg.DeleteResources(context.Background(), in)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if first.Affected != 1 || second.Affected != 0 {
		t.Fatalf("affected: %d then %d", first.Affected, second.Affected)
	}
	if len(second.IDs) != 2 {
		t.Fatalf("ids echo requested input: %v", second.IDs)
	}
	if len(f.tasks.ops) != 1 || f.tasks.ops[0][0] != jobs.VectorSyncOpDelete {
		t.Fatalf("expected one delete task, got %v", f.tasks.ops)
	}
}

func TestDeleteResourcesUnknownMode(t *testing.T) {
	f := newResourceFixture()
	_, err := f.agg.DeleteResources(context.Background(), domainagg.DeleteResourcesInput{
		IDs: []int64{1}, OwnerID: uuid.New(), Mode: "purge",
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}
