package http

import (
	"net/http"
)

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	g, err := s.groups.CreateGroup(r.Context(), req.Name, req.ImageRef, req.Members)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGroupView(g))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	ids, err := s.groups.ListGroupIDs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"group_ids": ids})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.groups.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupView(g))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.DeleteGroup(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBalances serves the whole group's pairwise balances, or one
// member's summary when ?member= is given.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")

	if member := r.URL.Query().Get("member"); member != "" {
		summary, err := s.groups.BalancesFor(r.Context(), groupID, member)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newSummaryView(summary))
		return
	}

	snap, err := s.groups.GroupBalances(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotView(snap))
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	snap, err := s.settlements.RecomputeGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotView(snap))
}
