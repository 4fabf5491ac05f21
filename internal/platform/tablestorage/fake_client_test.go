package tablestorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// responseError builds the error the SDK returns for a failed service call.
func responseError(status int, code string) error {
	req, _ := http.NewRequest(http.MethodGet, "https://account.table.core.windows.net/tasks", nil)
	header := http.Header{}
	header.Set("x-ms-error-code", code)
	return runtime.NewResponseError(&http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Request:    req,
	})
}

// fakeTableClient keeps entities in memory keyed by row key. Entities are
// stored as property maps so merge updates behave like the service.
type fakeTableClient struct {
	mu       sync.Mutex
	entities map[string]map[string]any
	etags    map[string]int
	created  bool

	pageSize int
	failWith error

	// beforeUpdate runs under the lock ahead of each UpdateEntity call.
	beforeUpdate func(f *fakeTableClient)
}

var _ TableClient = (*fakeTableClient)(nil)

func newFakeTableClient() *fakeTableClient {
	return &fakeTableClient{
		entities: make(map[string]map[string]any),
		etags:    make(map[string]int),
		pageSize: 2,
	}
}

func (f *fakeTableClient) etag(rk string) azcore.ETag {
	return azcore.ETag(strings.Repeat("v", f.etags[rk]))
}

func (f *fakeTableClient) CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.created {
		return aztables.CreateTableResponse{}, responseError(http.StatusConflict, string(aztables.TableAlreadyExists))
	}
	f.created = true
	return aztables.CreateTableResponse{}, nil
}

func (f *fakeTableClient) AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return aztables.AddEntityResponse{}, f.failWith
	}

	var props map[string]any
	if err := json.Unmarshal(entity, &props); err != nil {
		return aztables.AddEntityResponse{}, err
	}
	rk, _ := props["RowKey"].(string)
	if _, exists := f.entities[rk]; exists {
		return aztables.AddEntityResponse{}, responseError(http.StatusConflict, "EntityAlreadyExists")
	}
	f.entities[rk] = props
	f.etags[rk] = 1
	return aztables.AddEntityResponse{}, nil
}

func (f *fakeTableClient) GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return aztables.GetEntityResponse{}, f.failWith
	}

	props, ok := f.entities[rowKey]
	if !ok || props["PartitionKey"] != partitionKey {
		return aztables.GetEntityResponse{}, responseError(http.StatusNotFound, "ResourceNotFound")
	}
	data, err := json.Marshal(props)
	if err != nil {
		return aztables.GetEntityResponse{}, err
	}
	return aztables.GetEntityResponse{ETag: f.etag(rowKey), Value: data}, nil
}

func (f *fakeTableClient) UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return aztables.UpdateEntityResponse{}, f.failWith
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(f)
	}

	var props map[string]any
	if err := json.Unmarshal(entity, &props); err != nil {
		return aztables.UpdateEntityResponse{}, err
	}
	rk, _ := props["RowKey"].(string)
	existing, ok := f.entities[rk]
	if !ok {
		return aztables.UpdateEntityResponse{}, responseError(http.StatusNotFound, "ResourceNotFound")
	}
	if options == nil {
		return aztables.UpdateEntityResponse{}, errors.New("fake client requires update options")
	}
	if options.IfMatch != nil && *options.IfMatch != azcore.ETagAny && *options.IfMatch != f.etag(rk) {
		return aztables.UpdateEntityResponse{}, responseError(http.StatusPreconditionFailed, "UpdateConditionNotSatisfied")
	}
	switch options.UpdateMode {
	case aztables.UpdateModeReplace:
		f.entities[rk] = props
	case aztables.UpdateModeMerge:
		for k, v := range props {
			existing[k] = v
		}
	default:
		return aztables.UpdateEntityResponse{}, fmt.Errorf("unsupported update mode %q", options.UpdateMode)
	}
	f.etags[rk]++
	return aztables.UpdateEntityResponse{}, nil
}

func (f *fakeTableClient) DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entities[rowKey]; !ok {
		return aztables.DeleteEntityResponse{}, responseError(http.StatusNotFound, "ResourceNotFound")
	}
	if options != nil && options.IfMatch != nil && *options.IfMatch != azcore.ETagAny && *options.IfMatch != f.etag(rowKey) {
		return aztables.DeleteEntityResponse{}, responseError(http.StatusPreconditionFailed, "UpdateConditionNotSatisfied")
	}
	delete(f.entities, rowKey)
	delete(f.etags, rowKey)
	return aztables.DeleteEntityResponse{}, nil
}

func (f *fakeTableClient) NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse] {
	f.mu.Lock()
	keys := make([]string, 0, len(f.entities))
	for rk := range f.entities {
		keys = append(keys, rk)
	}
	sort.Strings(keys)

	pages := [][][]byte{}
	var page [][]byte
	for _, rk := range keys {
		data, _ := json.Marshal(f.entities[rk])
		page = append(page, data)
		if len(page) == f.pageSize {
			pages = append(pages, page)
			page = nil
		}
	}
	if len(page) > 0 || len(pages) == 0 {
		pages = append(pages, page)
	}
	failWith := f.failWith
	f.mu.Unlock()

	next := 0
	return runtime.NewPager(runtime.PagingHandler[aztables.ListEntitiesResponse]{
		More: func(aztables.ListEntitiesResponse) bool {
			return next < len(pages)
		},
		Fetcher: func(ctx context.Context, _ *aztables.ListEntitiesResponse) (aztables.ListEntitiesResponse, error) {
			if failWith != nil {
				return aztables.ListEntitiesResponse{}, failWith
			}
			resp := aztables.ListEntitiesResponse{Entities: pages[next]}
			next++
			return resp, nil
		},
	})
}
