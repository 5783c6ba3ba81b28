package integration

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/benthic/benthic/cmd/benthic/app"
)

func TestSyncIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sync Integration Suite")
}

// workspace is the local state of one simulated installation
type workspace struct {
	dir        string
	dataDir    string
	imageDir   string
	configFile string
}

func newWorkspace(baseURL string) *workspace {
	dir, err := os.MkdirTemp("", "benthic-it-")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			By(fmt.Sprintf("Warning: failed to cleanup temp dir %s: %v", dir, err))
		}
	})

	ws := &workspace{
		dir:        dir,
		dataDir:    filepath.Join(dir, "data"),
		imageDir:   filepath.Join(dir, "data", "images"),
		configFile: filepath.Join(dir, "config.yaml"),
	}

	config := fmt.Sprintf(`server:
  base_url: %s
sync:
  mode: manual_only
  batch_size: 2
  timeout: 5s
storage:
  data_dir: %s
  image_dir: %s
logging:
  file: %s
  level: DEBUG
`, baseURL, ws.dataDir, ws.imageDir, filepath.Join(dir, "benthic.log"))
	Expect(os.WriteFile(ws.configFile, []byte(config), 0600)).To(Succeed())
	return ws
}

// run executes the CLI against the workspace and returns its output
func (ws *workspace) run(args ...string) (string, error) {
	cmd := app.NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(GinkgoWriter)
	cmd.SetArgs(append([]string{"--config", ws.configFile}, args...))
	err := cmd.Execute()
	GinkgoWriter.Print(out.String())
	return out.String(), err
}

// storedImages lists the file names in the image directory
func (ws *workspace) storedImages() []string {
	entries, err := os.ReadDir(ws.imageDir)
	if os.IsNotExist(err) {
		return nil
	}
	Expect(err).NotTo(HaveOccurred())
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}
