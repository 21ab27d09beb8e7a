package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ByLCY/labelsheet/document"
)

func decodeQueue(t *testing.T, w *httptest.ResponseRecorder) QueueDTO {
	t.Helper()
	var q QueueDTO
	if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil {
		t.Fatalf("队列响应解析失败: %v %s", err, w.Body.String())
	}
	return q
}

func jsonBody(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestQueueLifecycle(t *testing.T) {
	r, store := newTestServer(t)
	const base = "/api/v1/queues/s1"

	if w := do(r, http.MethodGet, base, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("未创建的队列应返回 404，实际 %d", w.Code)
	}
	w := do(r, http.MethodPut, base, "application/json", jsonBody(t, QueueModeRequest{Mode: "product"}))
	if w.Code != http.StatusOK || len(decodeQueue(t, w).Items) != 0 {
		t.Fatalf("创建队列失败: %d %s", w.Code, w.Body.String())
	}

	add := func(qty int, item ItemDTO) *httptest.ResponseRecorder {
		return do(r, http.MethodPost, base+"/items", "application/json", jsonBody(t, AddItemRequest{Quantity: qty, Item: item}))
	}
	if w = add(2, ItemDTO{SKU: "A", Price: "1", CxInner: "x", Voltage: "220"}); w.Code != http.StatusCreated {
		t.Fatalf("添加失败: %d %s", w.Code, w.Body.String())
	}
	w = add(0, ItemDTO{SKU: "B", Price: "2", CxInner: "y"})
	q := decodeQueue(t, w)
	if len(q.Items) != 3 || q.Items[0].SKU != "B" || q.Items[1].ID == q.Items[2].ID {
		t.Fatalf("新条目应在队首且每份有独立 ID: %+v", q.Items)
	}
	if w = add(1, ItemDTO{}); w.Code != http.StatusBadRequest {
		t.Fatalf("空条目应返回 400，实际 %d", w.Code)
	}
	if w = add(300, ItemDTO{SKU: "Z"}); w.Code != http.StatusBadRequest {
		t.Fatalf("超过条目上限应返回 400，实际 %d", w.Code)
	}

	// B 拖到最后
	w = do(r, http.MethodPost, base+"/move", "application/json", jsonBody(t, MoveRequest{ActiveID: q.Items[0].ID, OverID: q.Items[2].ID}))
	q = decodeQueue(t, w)
	if w.Code != http.StatusOK || q.Items[2].SKU != "B" {
		t.Fatalf("移动失败: %d %+v", w.Code, q.Items)
	}
	if w = do(r, http.MethodPost, base+"/move", "application/json", jsonBody(t, MoveRequest{ActiveID: "nope", OverID: q.Items[0].ID})); w.Code != http.StatusNotFound {
		t.Fatalf("移动不存在的条目应返回 404，实际 %d", w.Code)
	}

	id := q.Items[0].ID
	w = do(r, http.MethodPut, base+"/items/"+id+"/font-size", "application/json", jsonBody(t, FontSizeRequest{Size: 100}))
	if q = decodeQueue(t, w); q.Items[0].CustomFontSize != 24 {
		t.Fatalf("字号应钳制到 24，实际 %g", q.Items[0].CustomFontSize)
	}
	w = do(r, http.MethodPut, base+"/items/"+id, "application/json", jsonBody(t, ItemDTO{SKU: "C", Price: "3", CxInner: "z"}))
	if q = decodeQueue(t, w); w.Code != http.StatusOK || q.Items[0].SKU != "C" || q.Items[0].ID != id || q.Items[0].CustomFontSize != 24 {
		t.Fatalf("编辑应保留 ID 和字号: %d %+v", w.Code, q.Items[0])
	}
	w = do(r, http.MethodDelete, base+"/items/"+id+"/font-size", "", nil)
	if q = decodeQueue(t, w); q.Items[0].CustomFontSize != 0 {
		t.Fatalf("重置后应恢复默认字号: %+v", q.Items[0])
	}
	if w = do(r, http.MethodDelete, base+"/items/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("删除不存在的条目应返回 404，实际 %d", w.Code)
	}
	w = do(r, http.MethodDelete, base+"/items/"+id, "", nil)
	if q = decodeQueue(t, w); len(q.Items) != 2 {
		t.Fatalf("删除后应剩 2 条: %+v", q.Items)
	}

	w = do(r, http.MethodPost, base+"/import", "text/csv", []byte("SKU,PRECO,CX_INNER\ncx464,10,cx 12\n"))
	if q = decodeQueue(t, w); w.Code != http.StatusOK || len(q.Items) != 3 || q.Items[0].SKU != "cx464" {
		t.Fatalf("导入应放到队首: %d %+v", w.Code, q.Items)
	}

	w = do(r, http.MethodPost, base+"/render", "application/json", jsonBody(t, QueueRenderRequest{ShowOutline: true, StartOffset: 2}))
	if w.Code != http.StatusCreated {
		t.Fatalf("渲染失败: %d %s", w.Code, w.Body.String())
	}
	var handle document.Handle
	if err := json.Unmarshal(w.Body.Bytes(), &handle); err != nil || handle.Labels != 3 {
		t.Fatalf("渲染结果错误: %v %+v", err, handle)
	}
	if w = do(r, http.MethodPost, base+"/render", "", nil); w.Code != http.StatusCreated {
		t.Fatalf("无请求体也应可渲染: %d %s", w.Code, w.Body.String())
	}
	if w = do(r, http.MethodPut, base+"/preview", "", nil); w.Code != http.StatusOK {
		t.Fatalf("预览失败: %d %s", w.Code, w.Body.String())
	}
	if w = do(r, http.MethodGet, "/api/v1/previews/s1", "", nil); w.Code != http.StatusOK {
		t.Fatalf("队列预览应可按会话读取: %d", w.Code)
	}
	if store.Len() != 3 {
		t.Fatalf("应存有两份渲染和一份预览，实际 %d", store.Len())
	}

	w = do(r, http.MethodPut, base, "application/json", jsonBody(t, QueueModeRequest{Mode: "measure"}))
	if q = decodeQueue(t, w); q.Mode != "measure" || len(q.Items) != 0 {
		t.Fatalf("切换模式应清空队列: %+v", q)
	}
	if w = add(1, ItemDTO{MeasureText: "74x107"}); w.Code != http.StatusCreated {
		t.Fatalf("尺寸条目添加失败: %d %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodDelete, base+"/items", "", nil)
	if q = decodeQueue(t, w); len(q.Items) != 0 {
		t.Fatalf("清空失败: %+v", q.Items)
	}
	if w = do(r, http.MethodDelete, base, "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("删除队列失败: %d", w.Code)
	}
	if w = do(r, http.MethodDelete, base, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("重复删除应返回 404，实际 %d", w.Code)
	}
}
