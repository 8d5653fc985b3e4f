// deskcli is a headless remote-desktop session probe: it connects to a
// target device, authenticates, and reports session events on stdout. It
// exercises the full client stack without a renderer, which makes it useful
// for connectivity debugging and soak testing.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/fleetlink/fleetlink-go/pkg/config"
	"github.com/fleetlink/fleetlink-go/pkg/logging"
	"github.com/fleetlink/fleetlink-go/pkg/peerstore"
	"github.com/fleetlink/fleetlink-go/pkg/proto"
	"github.com/fleetlink/fleetlink-go/pkg/secure"
	"github.com/fleetlink/fleetlink-go/pkg/session"
	"github.com/fleetlink/fleetlink-go/pkg/transport"
)

var (
	target    = flag.String("target", "", "Device id to connect to (required)")
	endpoint  = flag.String("endpoint", "", "Discovery endpoint (overrides env)")
	identity  = flag.String("key", "", "Base64 identity public key (overrides env)")
	password  = flag.String("password", "", "Credential; prompted on stdin when empty")
	useWS     = flag.Bool("ws", false, "Dial through a websocket bridge")
	storePath = flag.String("store", "", "Remembered-peer database path (overrides env)")
)

func main() {
	flag.Parse()

	printBanner()

	if *target == "" {
		fmt.Fprintln(os.Stderr, "Error: -target is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *endpoint != "" {
		cfg.Discovery.Endpoint = *endpoint
	}
	if *identity != "" {
		cfg.Identity.PublicKey = *identity
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	verifier, err := secure.NewVerifier(cfg.Identity.PublicKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: identity key: %v\n", err)
		os.Exit(1)
	}

	store, err := peerstore.Open(cfg.Store.Path)
	if err != nil {
		log.Warn("peer store unavailable", zap.Error(err))
		store = nil
	} else {
		defer store.Close()
	}

	opts := session.Options{
		Target:            *target,
		DiscoveryEndpoint: cfg.Discovery.Endpoint,
		DiscoveryTimeout:  cfg.Discovery.Timeout,
		KeepAliveInterval: cfg.Session.KeepAliveInterval,
		StatsInterval:     cfg.Session.StatsInterval,
		Version:           cfg.Session.Version,
		Store:             store,
	}
	if store != nil {
		if peer, err := store.Get(*target); err == nil {
			opts.Quality = proto.ImageQuality(peer.Quality)
			opts.CustomFPS = uint32(peer.CustomFPS)
		}
	}

	var dialer transport.Dialer = transport.NewTCPDialer()
	if *useWS {
		dialer = transport.NewWSDialer()
	}

	sess := session.New(opts, dialer, verifier, session.NopConsumer{}, log)
	defer sess.Close()

	if err := sess.Connect(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: connect: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("→ connecting to %s via %s\n", *target, cfg.Discovery.Endpoint)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case sig := <-sigs:
			fmt.Printf("\n← %v, disconnecting\n", sig)
			sess.Disconnect()
			return
		case ev, ok := <-sess.Events():
			if !ok {
				return
			}
			if done := handleEvent(sess, ev); done {
				return
			}
		}
	}
}

// handleEvent prints one session event and reacts to the ones that need
// input. Returns true when the session is over.
func handleEvent(sess *session.Session, ev session.Event) bool {
	switch ev.Kind {
	case session.EventStateChange:
		fmt.Printf("● state: %s\n", ev.State)
		if ev.State == session.StateDisconnected || ev.State == session.StateError {
			return true
		}
	case session.EventLog:
		fmt.Printf("  %s\n", ev.Text)
	case session.EventError:
		fmt.Printf("✗ %s\n", ev.Reason)
	case session.EventPasswordRequired:
		if err := sess.Authenticate(readCredential()); err != nil {
			fmt.Printf("✗ authenticate: %v\n", err)
		}
	case session.EventLoginError:
		fmt.Printf("✗ login rejected: %s\n", ev.Reason)
		if *password != "" {
			// A flag-supplied credential has no second guess.
			sess.Disconnect()
			return true
		}
		if err := sess.Authenticate(readCredential()); err != nil {
			fmt.Printf("✗ authenticate: %v\n", err)
		}
	case session.EventPeerInfo:
		fmt.Printf("✓ connected to %s (%s, %s), %d display(s)\n",
			ev.PeerInfo.Hostname, ev.PeerInfo.Platform, ev.PeerInfo.Version,
			len(ev.PeerInfo.Displays))
	case session.EventStats:
		fmt.Printf("  %d frames, %.1f fps, %s\n",
			ev.Stats.VideoFrames, ev.Stats.FPS, ev.Stats.Speed)
	case session.EventChat:
		fmt.Printf("💬 %s\n", ev.Text)
	case session.EventLatency:
		// Stats lines already carry throughput; latency stays on debug log.
	case session.EventPermission:
		fmt.Printf("● permission %d enabled=%v\n", ev.Permission.Permission, ev.Permission.Enabled)
	}
	return false
}

func readCredential() string {
	if *password != "" {
		return *password
	}
	fmt.Print("Password: ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

func printBanner() {
	fmt.Println(`
  ███████╗██╗     ███████╗███████╗████████╗██╗     ██╗███╗   ██╗██╗  ██╗
  ██╔════╝██║     ██╔════╝██╔════╝╚══██╔══╝██║     ██║████╗  ██║██║ ██╔╝
  █████╗  ██║     █████╗  █████╗     ██║   ██║     ██║██╔██╗ ██║█████╔╝
  ██╔══╝  ██║     ██╔══╝  ██╔══╝     ██║   ██║     ██║██║╚██╗██║██╔═██╗
  ██║     ███████╗███████╗███████╗   ██║   ███████╗██║██║ ╚████║██║  ██╗
  ╚═╝     ╚══════╝╚══════╝╚══════╝   ╚═╝   ╚══════╝╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝
                    remote desktop session probe`)
	fmt.Println()
}
