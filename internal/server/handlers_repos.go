package server

import "net/http"

// handleListRepos lists the repositories of the GitHub token holder
func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request, _ string) {
	client, err := s.repoClient(r, "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	repos, err := client.ListRepos(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"repos": repos})
}
