package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/swgillespie/a4/internal/engine"
	"github.com/swgillespie/a4/internal/eval"
	"github.com/swgillespie/a4/internal/store"
	"github.com/swgillespie/a4/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	noPersist  = flag.Bool("no-persist", false, "do not load or save settings")
)

func main() {
	// Protocol output owns stdout; everything else goes to stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(0)
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	var st *store.Store
	if !*noPersist {
		dbDir, err := store.DatabaseDir()
		if err == nil {
			st, err = store.Open(dbDir)
		}
		if err != nil {
			log.Printf("settings not persisted: %v", err)
		}
	}
	if st != nil {
		defer st.Close()
	}

	coord := engine.NewCoordinator(64, 1, func() engine.Evaluator { return eval.New() })
	uci.New(coord, st, os.Stdin, os.Stdout).Run()
}
