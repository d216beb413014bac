package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/gosuri/uiprogress"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/ini.v1"

	"pumpnet/calculator"
	"pumpnet/catalog"
	"pumpnet/model"
	"pumpnet/netfile"
	"pumpnet/pump"
	"pumpnet/report"
	"pumpnet/server"
	"pumpnet/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// appConfig conf/pumpnet.ini 中计算参数以外的部分
type appConfig struct {
	calc     calculator.Config
	addr     string
	storeDSN string
	logLevel string
}

func loadAppConfig(path string) appConfig {
	file, err := ini.Load(path)
	if err != nil {
		log.WithField("path", path).Warn("配置文件读取错误，使用默认配置: ", err)
		file = ini.Empty()
	}
	return appConfig{
		calc:     calculator.ConfigFromFile(file),
		addr:     file.Section("server").Key("addr").MustString(":9000"),
		storeDSN: file.Section("store").Key("path").MustString(""),
		logLevel: file.Section("log").Key("level").MustString("info"),
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pumpnet [options]\n\n")
		fmt.Fprintf(os.Stderr, "pumpnet computes head loss, flow split and pumping cost of a pipe network\n")
		fmt.Fprintf(os.Stderr, "with a series section, parallel branches and a second series section.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pumpnet                                 # Default two-branch network\n")
		fmt.Fprintf(os.Stderr, "  pumpnet -n conf/network.yaml -s 80:120  # File network with cost sweep\n")
		fmt.Fprintf(os.Stderr, "  pumpnet --serve --addr :9000            # Websocket server on /ws\n")
	}

	configFlag := pflag.StringP("config", "c", "conf/pumpnet.ini", "Path to the ini configuration file")
	networkFlag := pflag.StringP("network", "n", "", "Network definition file (YAML); default two-branch network when empty")
	flowFlag := pflag.Float64P("flow", "q", model.DefaultFlow, "Total flow in m³/h")
	heightFlag := pflag.Float64("height", model.DefaultHeight, "Geometric height difference in m")
	fluidFlag := pflag.String("fluid", catalog.Water20.String(), "Fluid key (see --catalog)")
	pumpEffFlag := pflag.Float64("pump-eff", model.DefaultPumpEfficiency, "Pump efficiency (0, 1]")
	motorEffFlag := pflag.Float64("motor-eff", model.DefaultMotorEfficiency, "Motor efficiency (0, 1]")
	hoursFlag := pflag.Float64("hours", model.DefaultHoursPerDay, "Operating hours per day")
	tariffFlag := pflag.Float64("tariff", model.DefaultTariff, "Energy tariff per kWh")
	sweepFlag := pflag.StringP("sweep", "s", "", "Diameter scale range in percent, e.g. 80:120")
	jsonFlag := pflag.BoolP("json", "j", false, "Output results as JSON")
	profileFlag := pflag.BoolP("profile", "p", false, "Include per-segment velocities and losses")
	progressFlag := pflag.Bool("progress", false, "Show a progress bar during the sweep")
	serveFlag := pflag.Bool("serve", false, "Start the websocket server")
	addrFlag := pflag.String("addr", "", "Server listen address (overrides [server] addr)")
	dbFlag := pflag.String("db", "", "SQLite file for run history (overrides [store] path)")
	historyFlag := pflag.Int("history", 0, "Print the latest N stored runs and exit")
	catalogFlag := pflag.Bool("catalog", false, "Print materials, fittings and fluids and exit")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	cfg := loadAppConfig(*configFlag)
	if level, err := log.ParseLevel(cfg.logLevel); err == nil {
		log.SetLevel(level)
	}
	if *addrFlag != "" {
		cfg.addr = *addrFlag
	}
	if *dbFlag != "" {
		cfg.storeDSN = *dbFlag
	}

	if *catalogFlag {
		if *jsonFlag {
			exitOnErr(writeJSON(catalog.All()))
			return
		}
		exitOnErr(report.RenderCatalog(os.Stdout, catalog.All()))
		return
	}

	var runs *store.Store
	if cfg.storeDSN != "" {
		s, err := store.Open(cfg.storeDSN)
		exitOnErr(err)
		defer s.Close()
		runs = s
	}

	if *historyFlag > 0 {
		if runs == nil {
			exitOnErr(fmt.Errorf("--history needs --db or [store] path"))
		}
		exitOnErr(printHistory(runs, *historyFlag, *jsonFlag))
		return
	}

	calc := calculator.NewCalculator(cfg.calc)

	if *serveFlag {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
		// nil *store.Store 不能直接作为接口传入
		var rec server.Recorder
		if runs != nil {
			rec = runs
		}
		s := server.NewServer(cfg.addr, upgrader, calc, rec)
		exitOnErr(s.Serve())
		return
	}

	net := model.DefaultNetwork()
	if *networkFlag != "" {
		n, err := netfile.Load(*networkFlag)
		exitOnErr(err)
		net = n
	}

	fluid, err := catalog.ParseFluid(*fluidFlag)
	exitOnErr(err)
	station := pump.NewStation(1)
	exitOnErr(station.SetFlow(*flowFlag))
	station.SetHeight(*heightFlag)
	exitOnErr(station.SetFluid(fluid))
	station.SetEfficiencies(*pumpEffFlag, *motorEffFlag)
	exitOnErr(station.SetUsage(*hoursFlag, *tariffFlag))
	p := station.Params()

	a, err := calc.Analyze(net, p)
	exitOnErr(err)

	if runs != nil {
		run := &store.Run{Network: net, Params: p, Analysis: a}
		if err := runs.Save(context.Background(), run); err != nil {
			log.Warn("保存计算记录失败: ", err)
		}
	}

	var points []calculator.SweepPoint
	if *sweepFlag != "" {
		r, err := parseScaleRange(*sweepFlag)
		exitOnErr(err)
		points, err = runSweep(calc, net, r, p, *progressFlag && !*jsonFlag)
		exitOnErr(err)
	}

	var profile []calculator.SegmentProfile
	if *profileFlag {
		profile = calc.Profile(net, a, p)
	}

	if *jsonFlag {
		exitOnErr(writeJSON(struct {
			Analysis calculator.Analysis         `json:"analysis"`
			Profile  []calculator.SegmentProfile `json:"profile,omitempty"`
			Sweep    []calculator.SweepPoint     `json:"sweep,omitempty"`
		}{a, profile, points}))
		return
	}

	exitOnErr(report.Render(os.Stdout, a, points))
	if *profileFlag {
		exitOnErr(report.RenderProfile(os.Stdout, profile))
	}
}

func runSweep(calc calculator.Calculator, net model.Network, r model.ScaleRange, p model.Params, progress bool) ([]calculator.SweepPoint, error) {
	if !progress {
		return calc.Sweep(net, r, p, nil)
	}

	uiprogress.Start()
	bar := uiprogress.AddBar(len(calculator.Scales(r, calc.Config().SweepStep))).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return "sweep"
	})
	points, err := calc.Sweep(net, r, p, func(calculator.SweepPoint) {
		bar.Incr()
	})
	uiprogress.Stop()
	return points, err
}

// parseScaleRange "80:120" 或 "100"
func parseScaleRange(s string) (model.ScaleRange, error) {
	from, to, found := strings.Cut(s, ":")
	if !found {
		to = from
	}
	lo, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return model.ScaleRange{}, fmt.Errorf("invalid sweep range %q: %w", s, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return model.ScaleRange{}, fmt.Errorf("invalid sweep range %q: %w", s, err)
	}
	r := model.ScaleRange{From: lo, To: hi}
	return r, r.Validate()
}

func printHistory(s *store.Store, limit int, asJSON bool) error {
	list, err := s.List(context.Background(), limit)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(list)
	}
	for _, run := range list {
		fmt.Printf("%s  %s  head %.3f m  %.2f kW  cost %.2f\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Analysis.Head, run.Analysis.Energy.PowerKW, run.Analysis.Energy.AnnualCost)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
