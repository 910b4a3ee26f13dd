package api

import (
	"net/http"
	"strconv"
	"strings"

	"geo-heatmap/internal/model"
)

// statesGMV：全国聚合；任何错误都由编排器回退到占位数据，始终 200
func (h *handler) statesGMV(w http.ResponseWriter, r *http.Request) {
	res := h.o.Regions(r.Context())
	recs := res.Records
	if recs == nil {
		recs = []model.Region{}
	}
	writeProvenance(w, res.Source, res.Synthetic)
	writeJSON(w, http.StatusOK, recs)
}

// citiesGMV：州内子区域聚合，仅返回带坐标的条目
func (h *handler) citiesGMV(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimSpace(r.PathValue("state"))
	if state == "" {
		writeError(w, http.StatusBadRequest, "State parameter is required")
		return
	}
	res := h.o.SubRegions(r.Context(), state)
	out := make([]model.SubRegion, 0, len(res.Records))
	for _, s := range res.Records {
		if s.HasCoordinates() {
			out = append(out, s)
		}
	}
	writeProvenance(w, res.Source, res.Synthetic)
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) stateStores(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimSpace(r.PathValue("state"))
	if state == "" {
		writeError(w, http.StatusBadRequest, "State parameter is required")
		return
	}
	rows, err := h.o.Source().FetchStoreLocations(r.Context(), state)
	if err != nil {
		h.fail(w, "state_stores", err, "")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "No stores found for this state")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handler) stateSellers(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimSpace(r.PathValue("state"))
	if state == "" {
		writeError(w, http.StatusBadRequest, "State parameter is required")
		return
	}
	rows, err := h.o.Source().FetchSellerEntities(r.Context(), state)
	if err != nil {
		h.fail(w, "state_sellers", err, "")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "No sellers found for this state")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func cityState(r *http.Request) (string, string, bool) {
	city := strings.TrimSpace(r.PathValue("city"))
	state := strings.TrimSpace(r.PathValue("state"))
	return city, state, city != "" && state != ""
}

func (h *handler) cityStores(w http.ResponseWriter, r *http.Request) {
	city, state, ok := cityState(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "City and state parameters are required")
		return
	}
	rows, err := h.o.Source().FetchStoreLocationsByCitySubRegion(r.Context(), city, state)
	if err != nil {
		h.fail(w, "city_stores", err, "")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "No stores found for this city")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// network：零条连线是合法结果，返回 200 []
func (h *handler) network(w http.ResponseWriter, r *http.Request) {
	city, state, ok := cityState(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "City and state parameters are required")
		return
	}
	rows, err := h.o.Source().FetchNetworkEdges(r.Context(), city, state)
	if err != nil {
		h.fail(w, "network", err, "")
		return
	}
	if rows == nil {
		rows = []model.NetworkEdge{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// parseID：正整数 ID；缺失与非法分别给出不同提示
func parseID(w http.ResponseWriter, raw, label string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		writeError(w, http.StatusBadRequest, label+" ID parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+strings.ToLower(label)+" ID")
		return 0, false
	}
	return id, true
}

func (h *handler) storeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r.PathValue("storeId"), "Store")
	if !ok {
		return
	}
	s, err := h.o.Source().FetchStoreDetail(r.Context(), id)
	if err != nil {
		h.fail(w, "store_detail", err, "Store not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) sellerDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r.PathValue("sellerId"), "Seller")
	if !ok {
		return
	}
	s, err := h.o.Source().FetchSellerDetail(r.Context(), id)
	if err != nil {
		h.fail(w, "seller_detail", err, "Seller not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
