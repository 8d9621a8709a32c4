package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/axon-robotics/axon_runtime/internal/config"
	"github.com/axon-robotics/axon_runtime/internal/face"
	"github.com/axon-robotics/axon_runtime/internal/logging"
	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

// RunConsole attaches to a running bridge, prints the telemetry and pose
// stream and forwards stdin lines as rover commands.
func RunConsole(envPath string) error {
	if err := config.InitGlobal(envPath); err != nil {
		return err
	}
	cfg := config.Get()
	logging.Init(cfg.LogLevel)
	log := logging.L()

	addr := cfg.BridgeAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("console: dial bridge %s: %w", addr, err)
	}
	defer conn.Close()
	log.Info("console connected", "addr", addr)

	done := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			printBridgeLine(sc.Text())
		}
		done <- sc.Err()
	}()

	// stdin lines go to the rover verbatim.
	go func() {
		in := bufio.NewScanner(os.Stdin)
		for in.Scan() {
			line := strings.TrimSpace(in.Text())
			if line == "" {
				continue
			}
			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				log.Error("console: command write failed", "error", err)
				return
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("console shutting down")
		return nil
	case err := <-done:
		if err != nil {
			return fmt.Errorf("console: bridge read: %w", err)
		}
		log.Info("bridge closed the connection")
		return nil
	}
}

func printBridgeLine(line string) {
	switch {
	case strings.HasPrefix(line, "telemetry "):
		var s telemetry.Sample
		if err := json.Unmarshal([]byte(line[len("telemetry "):]), &s); err != nil {
			fmt.Println(line)
			return
		}
		fmt.Printf("[TELEM] YAW=%7.2f PITCH=%7.2f ROLL=%7.2f V=%5.2f cal=%t\n",
			s.Yaw, s.Pitch, s.Roll, s.VoltageV, s.Calibrated)
	case strings.HasPrefix(line, "pose "):
		var p face.Pose
		if err := json.Unmarshal([]byte(line[len("pose "):]), &p); err != nil {
			fmt.Println(line)
			return
		}
		fmt.Printf("[POSE ] %-9s eyes=%.2f mouth=%+.2f yaw=%6.1f pitch=%6.1f\n",
			p.Emotion, p.EyeOpenness, p.MouthCurve, p.Yaw, p.Pitch)
	case strings.HasPrefix(line, "streaming "):
		fmt.Printf("[LINK ] streaming=%s\n", line[len("streaming "):])
	case strings.HasPrefix(line, "ok ") || strings.HasPrefix(line, "err "):
		fmt.Printf("[CMD  ] %s\n", line)
	default:
		// Raw transport mirror.
		fmt.Printf("[RAW  ] %s\n", line)
	}
}
