package commands

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"TopAnalyzer/pkg/exporting"
	"TopAnalyzer/pkg/graphing"
)

var serveAddr string

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve <path>...",
		Aliases: []string{"s"},
		Short:   "Serve reconstructed series and charts over HTTP",
		Long: `Ingest the given logs or exports once and serve them over HTTP.

Endpoints:
  /                          Index page with links
  /hosts                     Sources with process and sample counts (JSON)
  /hosts/{host}/pids         Processes of a source (JSON)
  /hosts/{host}/pids/{pid}   Every sample of one process (JSON)
  /hosts/{host}/charts       Chart page of a source (HTML)

Example:
  topan serve data/5g
  topan serve --addr 0.0.0.0:9090 out/5g-client.parquet`,
		Args: cobra.MinimumNArgs(1),
		RunE: runServe,
	}

	Cfg.AddIngestFlags(cmd)
	Cfg.AddGraphFlags(cmd)
	cmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")

	return cmd
}

type seriesServer struct {
	names  []string
	stores map[string]loaded
}

func newSeriesServer(stores []loaded) *seriesServer {
	s := &seriesServer{stores: make(map[string]loaded, len(stores))}
	for _, l := range stores {
		name := l.source.Name()
		if _, dup := s.stores[name]; dup {
			log.WithField("source", name).Warn("duplicate source name, keeping the first")
			continue
		}
		s.names = append(s.names, name)
		s.stores[name] = l
	}
	return s
}

func (s *seriesServer) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/hosts", s.handleHosts).Methods(http.MethodGet)
	r.HandleFunc("/hosts/{host}/pids", s.handlePids).Methods(http.MethodGet)
	r.HandleFunc("/hosts/{host}/pids/{pid:[0-9]+}", s.handlePid).Methods(http.MethodGet)
	r.HandleFunc("/hosts/{host}/charts", s.handleCharts).Methods(http.MethodGet)
	return r
}

func runServe(cmd *cobra.Command, args []string) error {
	Cfg.ApplyDefaults()
	if err := Cfg.Validate(); err != nil {
		return err
	}

	stores, failure := loadSources(args)
	if len(stores) == 0 {
		return errors.Append(errors.New("nothing to serve"), failure)
	}

	server := &http.Server{
		Addr:              serveAddr,
		Handler:           newSeriesServer(stores).router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{"addr": serveAddr, "sources": len(stores)}).Info("starting server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type hostInfo struct {
	Name       string `json:"name"`
	Source     string `json:"source"`
	Processes  int    `json:"processes"`
	Samples    int    `json:"samples"`
	Mismatches int    `json:"mismatches"`
}

type pidInfo struct {
	PID     int64  `json:"pid"`
	User    string `json:"user"`
	Command string `json:"command"`
	Samples int    `json:"samples"`
}

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>topan</title></head>
<body>
<h1>Process series</h1>
{{range .}}
{{.Info}}
<ul>
<li><a href="/hosts/{{.Name}}/charts">Charts</a></li>
<li><a href="/hosts/{{.Name}}/pids">Processes</a></li>
</ul>
{{end}}
</body>
</html>`))

func (s *seriesServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name string
		Info template.HTML
	}
	entries := make([]entry, 0, len(s.names))
	for _, name := range s.names {
		l := s.stores[name]
		info, err := graphing.RenderInfo(graphing.NewReportInfo(name, l.store, l.summary, nil))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		entries = append(entries, entry{Name: name, Info: info})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage.Execute(w, entries); err != nil {
		log.WithError(err).Error("render index")
	}
}

func (s *seriesServer) handleHosts(w http.ResponseWriter, r *http.Request) {
	hosts := make([]hostInfo, 0, len(s.names))
	for _, name := range s.names {
		l := s.stores[name]
		hosts = append(hosts, hostInfo{
			Name:       name,
			Source:     l.source.Path,
			Processes:  l.store.Len(),
			Samples:    l.store.Samples(),
			Mismatches: l.store.NumMismatches(),
		})
	}
	writeJSONResponse(w, hosts)
}

func (s *seriesServer) lookup(w http.ResponseWriter, r *http.Request) (loaded, bool) {
	host := mux.Vars(r)["host"]
	l, ok := s.stores[host]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown host %q", host), http.StatusNotFound)
	}
	return l, ok
}

func (s *seriesServer) handlePids(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	pids := make([]pidInfo, 0, l.store.Len())
	for _, ser := range l.store.Series() {
		pids = append(pids, pidInfo{PID: ser.PID, User: ser.User, Command: ser.Command, Samples: ser.Len()})
	}
	writeJSONResponse(w, pids)
}

func (s *seriesServer) handlePid(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	pid, err := strconv.ParseInt(mux.Vars(r)["pid"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ser, ok := l.store.Get(pid)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown pid %d", pid), http.StatusNotFound)
		return
	}

	rows := make([]exporting.Row, ser.Len())
	for i := range rows {
		rows[i] = exporting.FlattenRecord(ser.Record(i), i)
	}
	writeJSONResponse(w, rows)
}

func (s *seriesServer) handleCharts(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	gen, err := newGenerator(l)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := gen.Render(w); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, graphing.ErrNoData) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
	}
}

func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("JSON error: %v", err), http.StatusInternalServerError)
	}
}
