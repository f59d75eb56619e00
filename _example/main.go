package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/sckm"
	"github.com/hupe1980/sckm/snapshot"
	"github.com/hupe1980/sckm/testutil"
)

func main() {
	ctx := context.Background()

	seed := int64(4711)
	dim := 128
	clusters := 8
	perCluster := 2500
	flip := 8
	eta := 50

	rng := testutil.NewRNG(seed)
	data, anchors := rng.Clusters(clusters, perCluster, dim, flip)
	rng.Shuffle(data)

	fmt.Println("--- Dataset ---")
	fmt.Println("Dimension:", dim)
	fmt.Println("Points:", len(data))
	fmt.Println("Planted clusters:", clusters)
	fmt.Println()

	m, err := sckm.New(data, sckm.WithParallelism(0))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	fmt.Println("--- Train ---")

	start := time.Now()

	if err := m.Train(ctx, eta); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Seconds: %.2f\n", time.Since(start).Seconds())

	stats := m.Stats()
	fmt.Println("State:", stats.State)
	fmt.Println("Clusters:", stats.Clusters)
	fmt.Println()

	fmt.Println("--- Query ---")

	near := rng.Flip(anchors[0].Bools(), flip)
	far := anchors[1].Bools()

	start = time.Now()

	verdict, err := m.SameCluster(ctx, anchors[0].Bools(), near)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Anchor vs neighbor:", verdict)

	verdict, err = m.SameCluster(ctx, anchors[0].Bools(), far)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Anchor vs other anchor:", verdict)

	fmt.Printf("Seconds: %.8f\n\n", time.Since(start).Seconds())

	fmt.Println("--- Snapshot ---")

	name := filepath.Join(os.TempDir(), "demo.sckm")
	defer os.Remove(name)

	start = time.Now()

	err = m.SaveToFile(name, func(o *snapshot.Options) {
		o.Compression = snapshot.CompressionZSTD
	})
	if err != nil {
		log.Fatal(err)
	}

	fi, err := os.Stat(name)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Seconds: %.2f\n", time.Since(start).Seconds())
	fmt.Println("Bytes:", fi.Size())
	fmt.Println()

	fmt.Println("--- Retrain ---")

	fresh, _ := rng.Clusters(clusters, perCluster, dim, flip)

	start = time.Now()

	if err := m.UpdateData(ctx, fresh); err != nil {
		log.Fatal(err)
	}
	if err := m.Train(ctx, eta); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Seconds: %.2f\n", time.Since(start).Seconds())

	stats = m.Stats()
	fmt.Println("State:", stats.State)
	fmt.Println("Clusters:", stats.Clusters)
}
