// Package kubeprobe checks reachability of a Kubernetes API server.
package kubeprobe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/clustergate/hostgate/internal/probe"
)

// Type is the canonical service type handled by Prober.
const Type = "kubernetes"

// ClientFactory builds a clientset from a rest.Config.
type ClientFactory func(*rest.Config) (kubernetes.Interface, error)

// Prober asks the API server for its version and, unless disabled with the
// "nodes" option set to "false", counts Ready nodes.
type Prober struct {
	newClient ClientFactory
}

// New creates a Kubernetes prober using the real client-go clientset.
func New() *Prober {
	return &Prober{newClient: func(cfg *rest.Config) (kubernetes.Interface, error) {
		return kubernetes.NewForConfig(cfg)
	}}
}

// NewWithFactory creates a prober that obtains clients from f.
func NewWithFactory(f ClientFactory) *Prober {
	return &Prober{newClient: f}
}

func (p *Prober) Type() string { return Type }

func (p *Prober) Probe(ctx context.Context, t probe.Target) (string, error) {
	cfg, err := restConfig(t)
	if err != nil {
		return "", fmt.Errorf("loading cluster config: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		cfg.Timeout = time.Until(dl)
	}

	cs, err := p.newClient(cfg)
	if err != nil {
		return "", fmt.Errorf("creating client: %w", err)
	}

	version, err := cs.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("querying server version: %w", err)
	}
	detail := "server " + version.GitVersion

	if t.Option("nodes", "true") == "false" {
		return detail, nil
	}

	nodes, err := cs.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("listing nodes: %w", err)
	}
	ready := 0
	for i := range nodes.Items {
		if nodeReady(&nodes.Items[i]) {
			ready++
		}
	}
	return fmt.Sprintf("%s, %d/%d nodes ready", detail, ready, len(nodes.Items)), nil
}

func nodeReady(n *corev1.Node) bool {
	for _, c := range n.Status.Conditions {
		if c.Type == corev1.NodeReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

// restConfig resolves the cluster connection in order: an explicit
// "kubeconfig" option, a host address with the password as bearer token,
// the in-cluster service account, then the default loading rules.
func restConfig(t probe.Target) (*rest.Config, error) {
	if path := t.Option("kubeconfig", ""); path != "" {
		return clientcmd.BuildConfigFromFlags(serverURL(t), path)
	}
	if t.Host != "" {
		return &rest.Config{
			Host:        serverURL(t),
			BearerToken: t.Password,
			TLSClientConfig: rest.TLSClientConfig{
				Insecure: t.Option("insecure", "") == "true",
				CAFile:   t.Option("ca_file", ""),
			},
		}, nil
	}
	cfg, err := rest.InClusterConfig()
	if err == nil {
		return cfg, nil
	}
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, nil).ClientConfig()
}

func serverURL(t probe.Target) string {
	if t.Host == "" {
		return ""
	}
	port := t.Port
	if port == 0 {
		port = 6443
	}
	return t.Option("scheme", "https") + "://" + net.JoinHostPort(t.Host, strconv.Itoa(port))
}
