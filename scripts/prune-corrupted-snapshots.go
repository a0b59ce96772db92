package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

// Minimal snapshot header; enough to sanity-check an entry without
// decoding the whole world.
type snapshotHeader struct {
	Version int             `json:"version"`
	Tick    uint64          `json:"tick"`
	SavedAt string          `json:"saved_at"`
	Players json.RawMessage `json:"players"`
}

const (
	currentKey = "worldsnapshot:current"
	historyKey = "worldsnapshot:history"
)

func main() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("Failed to parse Redis URL:", err)
	}

	client := redis.NewClient(opt)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	fmt.Println("Connected to Redis:", redisURL)
	fmt.Println("Checking snapshot history...")

	entries, err := client.LRange(ctx, historyKey, 0, -1).Result()
	if err != nil {
		log.Fatal("Error reading snapshot history:", err)
	}

	var keep []string
	var dropped int
	for i, data := range entries {
		var header snapshotHeader
		if err := json.Unmarshal([]byte(data), &header); err != nil {
			fmt.Printf("✗ history[%d]: corrupted JSON: %v\n", i, err)
			dropped++
			continue
		}
		fmt.Printf("✓ history[%d]: tick %d, version %d, saved %s\n", i, header.Tick, header.Version, header.SavedAt)
		keep = append(keep, data)
	}

	currentOK := true
	current, err := client.Get(ctx, currentKey).Result()
	switch {
	case err == redis.Nil:
		fmt.Println("No current snapshot set")
		currentOK = false
	case err != nil:
		log.Fatal("Error reading current snapshot:", err)
	default:
		var header snapshotHeader
		if err := json.Unmarshal([]byte(current), &header); err != nil {
			fmt.Printf("✗ current snapshot: corrupted JSON: %v\n", err)
			currentOK = false
		} else {
			fmt.Printf("✓ current snapshot: tick %d, version %d, saved %s\n", header.Tick, header.Version, header.SavedAt)
		}
	}

	if dropped == 0 && currentOK {
		fmt.Println("\nAll snapshots are intact!")
		return
	}

	fmt.Printf("\n%d corrupted history entries", dropped)
	if !currentOK {
		fmt.Print("; the current snapshot needs repair")
	}
	fmt.Println()

	fmt.Print("\nRewrite the history (and repair current from the newest intact entry)? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response != "yes" {
		fmt.Println("Aborted - no changes made")
		return
	}

	// keep is newest-first; RPush in order rebuilds the same layout.
	pipe := client.TxPipeline()
	pipe.Del(ctx, historyKey)
	for _, data := range keep {
		pipe.RPush(ctx, historyKey, data)
	}
	if !currentOK {
		if len(keep) > 0 {
			pipe.Set(ctx, currentKey, keep[0], 0)
		} else {
			pipe.Del(ctx, currentKey)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Fatal("Failed to rewrite snapshots:", err)
	}

	if !currentOK && len(keep) == 0 {
		fmt.Println("No intact snapshots remained; the server will reseed on next boot")
	}
	fmt.Println("Cleanup complete!")
}
