/*
Package clear generates compositional question-answer datasets for
diagnostic reasoning benchmarks. Given scene graphs (entities with
attributes plus labeled pairwise relationships) and a catalog of authored
question templates, it instantiates template parameters through constrained
backtracking search, computes each answer by interpreting the bound
functional program against the scene, and renders the question text with
lexical variation. Answers are computed, never guessed.

The engine is modality-agnostic: the same interpreter and search run over
visual scenes (spatial relations) and acoustic scenes (temporal relations);
the modality lives entirely in the data.

# Architecture

The core is split in leaf packages under pkg/ — scene, program, interp,
catalog, synth, balance, render — orchestrated by an internal runtime and
wrapped by this facade. Controller state (per-scene signature sets, the
run-wide answer histogram) sits behind a port with in-memory and Redis
adapters, so single-process and distributed runs share one code path.

# Usage

	cat, err := catalog.LoadFile("templates.yaml")
	if err != nil {
		log.Fatal(err)
	}
	scenes, bad, err := scene.LoadFile("scenes.json")
	if err != nil {
		log.Fatal(err)
	}
	for _, b := range bad {
		log.Printf("skipping: %v", b)
	}

	engine, err := clear.New(cat, clear.WithSeed(42))
	if err != nil {
		log.Fatal(err)
	}
	records, report, err := engine.Generate(context.Background(), scenes)
	if err != nil {
		log.Fatal(err)
	}
	_ = dataset.WriteJSONL(os.Stdout, records)
	log.Printf("run %s: %d records", report.RunID, report.Records)

Given the same scenes, catalog, synonym dictionary and seed, Generate
produces byte-identical records across runs (with a single worker; with
more workers rendered text is still scheduling-independent, but when
balance targets are set the arbitration order may admit a different
record subset).
*/
package clear
