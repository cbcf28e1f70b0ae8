package testserver

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/amestris-client/internal/utils"
	"github.com/MKhiriev/amestris-client/models"
)

type page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "id inválido", nil)
		return 0, false
	}
	return id, true
}

func indexOf[T any](items []T, id int64, idOf func(T) int64) int {
	return slices.IndexFunc(items, func(item T) bool { return idOf(item) == id })
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func (s *Server) audit(action, entity string, id int64) {
	s.audits = append(s.audits, models.Audit{
		ID:        s.newID(),
		Action:    action,
		Entity:    entity,
		EntityID:  id,
		CreatedAt: time.Now().UTC(),
	})
}

// ── alchemists ───────────────────────────────────────────────────────────────

func alchemistID(a models.Alchemist) int64 { return a.ID }

func (s *Server) listAlchemists(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.alchemists)
	s.mu.Unlock()

	utils.WriteJSON(w, items, http.StatusOK)
}

func (s *Server) getAlchemist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.alchemists, id, alchemistID)
	if i < 0 {
		utils.WriteError(w, http.StatusNotFound, "alquimista no encontrado", nil)
		return
	}
	utils.WriteJSON(w, s.alchemists[i], http.StatusOK)
}

func (s *Server) createAlchemist(w http.ResponseWriter, r *http.Request) {
	var in models.AlchemistInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		utils.WriteError(w, http.StatusUnprocessableEntity, "validación", map[string]string{"name": "requerido"})
		return
	}

	s.mu.Lock()
	a := models.Alchemist{ID: s.newID(), Name: in.Name, Rank: in.Rank, Specialty: in.Specialty, CreatedAt: time.Now().UTC()}
	s.alchemists = append(s.alchemists, a)
	s.audit("CREATE", "alchemist", a.ID)
	s.mu.Unlock()

	utils.WriteJSON(w, a, http.StatusCreated)
}

func (s *Server) updateAlchemist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.AlchemistInput
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.alchemists, id, alchemistID)
	if i < 0 {
		utils.WriteError(w, http.StatusNotFound, "alquimista no encontrado", nil)
		return
	}
	a := &s.alchemists[i]
	a.Name, a.Rank, a.Specialty, a.UpdatedAt = in.Name, in.Rank, in.Specialty, time.Now().UTC()
	s.audit("UPDATE", "alchemist", id)
	utils.WriteJSON(w, *a, http.StatusOK)
}

func (s *Server) deleteAlchemist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.alchemists, id, alchemistID)
	if i < 0 {
		utils.WriteError(w, http.StatusNotFound, "alquimista no encontrado", nil)
		return
	}
	s.alchemists = slices.Delete(s.alchemists, i, i+1)
	s.audit("DELETE", "alchemist", id)
	w.WriteHeader(http.StatusNoContent)
}

// ── materials ────────────────────────────────────────────────────────────────

func materialID(m models.Material) int64 { return m.ID }

func (s *Server) listMaterials(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.materials)
	s.mu.Unlock()

	utils.WriteJSON(w, page[models.Material]{Items: items, Page: 1, PageSize: len(items), Total: len(items)}, http.StatusOK)
}

func (s *Server) createMaterial(w http.ResponseWriter, r *http.Request) {
	var in models.MaterialInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Unit) == "" || in.Quantity < 0 {
		utils.WriteError(w, http.StatusUnprocessableEntity, "validación", nil)
		return
	}

	s.mu.Lock()
	m := models.Material{ID: s.newID(), Name: in.Name, Quantity: in.Quantity, Unit: in.Unit, Rarity: in.Rarity, Notes: in.Notes, CreatedAt: time.Now().UTC()}
	s.materials = append(s.materials, m)
	s.audit("CREATE", "material", m.ID)
	s.mu.Unlock()

	utils.WriteJSON(w, m, http.StatusCreated)
}

func (s *Server) updateMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.MaterialInput
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.materials, id, materialID)
	if i < 0 {
		utils.WriteError(w, http.StatusNotFound, "material no encontrado", nil)
		return
	}
	m := &s.materials[i]
	m.Name, m.Quantity, m.Unit, m.Rarity, m.Notes, m.UpdatedAt = in.Name, in.Quantity, in.Unit, in.Rarity, in.Notes, time.Now().UTC()
	s.audit("UPDATE", "material", id)
	utils.WriteJSON(w, *m, http.StatusOK)
}

func (s *Server) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.materials, id, materialID)
	if i < 0 {
		utils.WriteError(w, http.StatusNotFound, "material no encontrado", nil)
		return
	}
	s.materials = slices.Delete(s.materials, i, i+1)
	s.audit("DELETE", "material", id)
	w.WriteHeader(http.StatusNoContent)
}

// ── missions ─────────────────────────────────────────────────────────────────

func missionID(m models.Mission) int64 { return m.ID }

func (s *Server) listMissions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.missions)
	s.mu.Unlock()

	utils.WriteJSON(w, items, http.StatusOK)
}

func (s *Server) getMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.missions, id, missionID)
	if i < 0 {
		utils.WriteError(w, http.StatusNotFound, "misión no encontrada", nil)
		return
	}
	utils.WriteJSON(w, s.missions[i], http.StatusOK)
}

func (s *Server) createMission(w http.ResponseWriter, r *http.Request) {
	var in models.MissionInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		utils.WriteError(w, http.StatusUnprocessableEntity, "validación", map[string]string{"title": "requerido"})
		return
	}

	status := in.Status
	if status == "" {
		status = models.MissionPending
	}

	s.mu.Lock()
	m := models.Mission{ID: s.newID(), Title: in.Title, Status: status, AssignedAlchemistID: in.AssignedAlchemistID, CreatedAt: time.Now().UTC()}
	if in.Description != nil {
		m.Description = *in.Description
	}
	s.missions = append(s.missions, m)
	s.audit("CREATE", "mission", m.ID)
	s.mu.Unlock()

	utils.WriteJSON(w, m, http.StatusCreated)
}

func (s *Server) updateMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.MissionInput
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.missions, id, missionID)
	if i < 0 {
		utils.WriteError(w, http.StatusNotFound, "misión no encontrada", nil)
		return
	}
	m := &s.missions[i]
	m.Title, m.AssignedAlchemistID, m.UpdatedAt = in.Title, in.AssignedAlchemistID, time.Now().UTC()
	if in.Status != "" {
		m.Status = in.Status
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	s.audit("UPDATE", "mission", id)
	utils.WriteJSON(w, *m, http.StatusOK)
}

func (s *Server) deleteMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.missions, id, missionID)
	if i < 0 {
		utils.WriteError(w, http.StatusNotFound, "misión no encontrada", nil)
		return
	}
	s.missions = slices.Delete(s.missions, i, i+1)
	s.audit("DELETE", "mission", id)
	w.WriteHeader(http.StatusNoContent)
}

// ── transmutations ───────────────────────────────────────────────────────────

func transmutationID(t models.Transmutation) int64 { return t.ID }

func (s *Server) listTransmutations(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	pageNum := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)

	s.mu.Lock()
	var matched []models.Transmutation
	// newest first
	for i := len(s.transmutations) - 1; i >= 0; i-- {
		t := s.transmutations[i]
		if q == "" || strings.Contains(strings.ToLower(t.Title), q) {
			matched = append(matched, t)
		}
	}
	s.mu.Unlock()

	start := min((pageNum-1)*pageSize, len(matched))
	end := min(start+pageSize, len(matched))

	utils.WriteJSON(w, page[models.Transmutation]{
		Items:    matched[start:end],
		Page:     pageNum,
		PageSize: pageSize,
		Total:    len(matched),
	}, http.StatusOK)
}

// AddTransmutation stores t (assigning an id when zero) without publishing an
// event.
func (s *Server) AddTransmutation(t models.Transmutation) models.Transmutation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == 0 {
		t.ID = s.newID()
	}
	s.transmutations = append(s.transmutations, t)
	return t
}

func (s *Server) createTransmutation(w http.ResponseWriter, r *http.Request) {
	var in models.TransmutationInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" || in.MaterialID <= 0 || in.QuantityUsed <= 0 {
		utils.WriteError(w, http.StatusUnprocessableEntity, "validación", nil)
		return
	}

	s.mu.Lock()
	i := indexOf(s.materials, in.MaterialID, materialID)
	if i < 0 {
		s.mu.Unlock()
		utils.WriteError(w, http.StatusUnprocessableEntity, "material inexistente", map[string]string{"materialId": "inexistente"})
		return
	}
	t := models.Transmutation{
		ID:           s.newID(),
		Title:        in.Title,
		MaterialID:   in.MaterialID,
		MaterialName: s.materials[i].Name,
		MissionID:    in.MissionID,
		QuantityUsed: in.QuantityUsed,
		Result:       in.Result,
		CreatedAt:    time.Now().UTC(),
	}
	s.transmutations = append(s.transmutations, t)
	s.audit("CREATE", "transmutation", t.ID)
	s.mu.Unlock()

	s.PublishJSON(models.EventTransmutationCreated, t)
	utils.WriteJSON(w, t, http.StatusCreated)
}

func (s *Server) updateTransmutation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.TransmutationInput
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	i := indexOf(s.transmutations, id, transmutationID)
	if i < 0 {
		s.mu.Unlock()
		utils.WriteError(w, http.StatusNotFound, "transmutación no encontrada", nil)
		return
	}
	t := &s.transmutations[i]
	t.Title, t.MissionID, t.QuantityUsed, t.Result = in.Title, in.MissionID, in.QuantityUsed, in.Result
	updated := *t
	s.audit("UPDATE", "transmutation", id)
	s.mu.Unlock()

	s.PublishJSON(models.EventTransmutationUpdated, updated)
	utils.WriteJSON(w, updated, http.StatusOK)
}

func (s *Server) deleteTransmutation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	i := indexOf(s.transmutations, id, transmutationID)
	if i < 0 {
		s.mu.Unlock()
		utils.WriteError(w, http.StatusNotFound, "transmutación no encontrada", nil)
		return
	}
	s.transmutations = slices.Delete(s.transmutations, i, i+1)
	s.audit("DELETE", "transmutation", id)
	s.mu.Unlock()

	s.PublishJSON(models.EventTransmutationDeleted, map[string]int64{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

// ── audits ───────────────────────────────────────────────────────────────────

func (s *Server) listAudits(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.audits)
	s.mu.Unlock()

	if items == nil {
		items = []models.Audit{}
	}
	utils.WriteJSON(w, items, http.StatusOK)
}

// PublishJSON publishes data encoded as JSON to every open event stream.
func (s *Server) PublishJSON(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	s.Publish(event, string(payload))
}
