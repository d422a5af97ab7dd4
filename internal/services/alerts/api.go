package alerts

import (
	"encoding/json"
	"net/http"

	"farmops/internal/model/entities"
)

// NewHTTPMux exposes the registry over HTTP. GET lists what the
// registry holds; POST upserts rows, so the roster can be managed
// without touching the seed file.
func NewHTTPMux(svc *Service, reg *Registry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })

	mux.HandleFunc("/registry/fields", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fields, err := reg.Fields()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, fields)
		case http.MethodPost:
			var f entities.Field
			if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
				http.Error(w, "bad field payload: "+err.Error(), http.StatusBadRequest)
				return
			}
			if f.ID == "" || f.FarmID == "" {
				http.Error(w, "field needs id and farm_id", http.StatusBadRequest)
				return
			}
			if err := reg.UpsertField(f); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/registry/leases", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rows, err := reg.Leases()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, rows)
		case http.MethodPost:
			// Accepts a JSON array so a whole roster can land in one call.
			var ls []entities.Lease
			if err := json.NewDecoder(r.Body).Decode(&ls); err != nil {
				http.Error(w, "bad lease payload: "+err.Error(), http.StatusBadRequest)
				return
			}
			n, err := reg.InsertLeases(ls)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]int{"inserted": n})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/registry/workers", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			workers, err := reg.Workers()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, workers)
		case http.MethodPost:
			var wk entities.Worker
			if err := json.NewDecoder(r.Body).Decode(&wk); err != nil {
				http.Error(w, "bad worker payload: "+err.Error(), http.StatusBadRequest)
				return
			}
			if wk.ID == "" {
				http.Error(w, "worker needs id", http.StatusBadRequest)
				return
			}
			if err := reg.UpsertWorker(wk); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// POST /scan/leases runs a rent scan right now, outside the cron
	// schedule. Handy after seeding a new roster.
	mux.HandleFunc("/scan/leases", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		n, err := svc.ScanLeases(svc.now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]int{"published": n})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
