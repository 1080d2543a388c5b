package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/monitor"
	"github.com/eth2030/eclipsemonitor/node"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"eclipsemon"}, args...))
	return out.String(), err
}

func TestSecStateDecode(t *testing.T) {
	s := monitor.SecState{
		GenesisHash:         types.Hash{0xd4, 0xe5},
		CheckpointHash:      types.Hash{0x88},
		CheckpointNumber:    []byte{0x01, 0x00},
		CheckpointIteration: 3,
	}
	enc := hexutil.Encode(s.Encode())
	for _, arg := range []string{enc, strings.TrimPrefix(enc, "0x")} {
		out, err := runApp(t, "secstate", "decode", arg)
		if err != nil {
			t.Fatalf("decode %s: %v", arg, err)
		}
		var got secStateView
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("unmarshal %q: %v", out, err)
		}
		want := secStateView{
			GenesisHash:         s.GenesisHash.Hex(),
			CheckpointHash:      s.CheckpointHash.Hex(),
			CheckpointNumber:    "256",
			CheckpointIteration: 3,
		}
		if got != want {
			t.Fatalf("decoded = %+v, want %+v", got, want)
		}
	}
}

func TestSecStateDecodeErrors(t *testing.T) {
	if _, err := runApp(t, "secstate", "decode"); err == nil {
		t.Fatal("decode without an argument succeeded")
	}
	if _, err := runApp(t, "secstate", "decode", "0xzz"); err == nil {
		t.Fatal("decode of bad hex succeeded")
	}
	_, err := runApp(t, "secstate", "decode", "0xc0")
	if !errors.Is(err, monitor.ErrInvalidSecState) {
		t.Fatalf("err = %v, want ErrInvalidSecState", err)
	}
}

func TestConfigFlagsOverride(t *testing.T) {
	out, err := runApp(t, "config",
		"--rpc-url", "http://node:8545",
		"--network", "goerli",
		"--start-block", "42",
		"--metrics-addr", "",
		"--log-format", "text")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	var cfg node.Config
	if _, err := toml.Decode(out, &cfg); err != nil {
		t.Fatalf("decode printed config: %v\n%s", err, out)
	}
	if cfg.Host.URL != "http://node:8545" || cfg.Monitor.Network != "goerli" || cfg.Monitor.StartBlock != 42 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Metrics.Addr != "" || cfg.Log.Format != "text" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Host.Concurrency != node.DefaultConfig().Host.Concurrency {
		t.Fatalf("defaults lost: %+v", cfg.Host)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	_, err := runApp(t, "run", "--rpc-url", "http://node:8545", "--network", "sepolia")
	if err == nil || !strings.Contains(err.Error(), "sepolia") {
		t.Fatalf("err = %v, want an unknown network error", err)
	}
}
