package bench

import (
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// NamespaceGuard owns the root node all child nodes live under.
type NamespaceGuard struct {
	client *Client
	root   string
	force  bool
	now    func() time.Time
}

func NewNamespaceGuard(client *Client, root string, force bool) *NamespaceGuard {
	return &NamespaceGuard{client: client, root: root, force: force, now: time.Now}
}

// Claim makes sure the root exists and has no children. An existing root
// is only reused when forced, and then its direct children are deleted.
func (self *NamespaceGuard) Claim() error {
	exists, err := self.client.Exists(self.root)
	if err != nil {
		return WrapError(ErrOperation, err, "exists", self.root)
	}
	if !exists {
		marker := "smoketest root, delete after test done, created " + self.now().Format(time.ANSIC)
		if err := self.client.Create(self.root, []byte(marker)); err != nil {
			return WrapError(ErrOperation, err, "create", self.root)
		}
		log.Info("created root node", zap.String("root", self.root))
		return nil
	}
	if !self.force {
		return ErrNamespaceConflict.GenWithStackByArgs(self.root)
	}

	children, err := self.client.Children(self.root)
	if err != nil {
		return WrapError(ErrOperation, err, "get children", self.root)
	}
	for _, child := range children {
		p := self.root + "/" + child
		if err := self.client.Delete(p); err != nil {
			return WrapError(ErrOperation, err, "delete", p)
		}
	}
	log.Warn("reusing existing root node", zap.String("root", self.root),
		zap.Int("deletedChildren", len(children)))
	return nil
}

// Teardown deletes the root node.
func (self *NamespaceGuard) Teardown() error {
	if err := self.client.Delete(self.root); err != nil {
		return WrapError(ErrOperation, err, "delete", self.root)
	}
	log.Info("deleted root node", zap.String("root", self.root))
	return nil
}
