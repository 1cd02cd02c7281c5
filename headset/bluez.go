package headset

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	bluezBus      = "org.bluez"
	bluezDevice   = "org.bluez.Device1"
	propsIface    = "org.freedesktop.DBus.Properties"
	propsChanged  = "PropertiesChanged"
	defaultHCI    = "hci0"
	dbusGetAll    = propsIface + ".GetAll"
	dbusAddMatch  = "org.freedesktop.DBus.AddMatch"
	dbusRemMatch  = "org.freedesktop.DBus.RemoveMatch"
	signalBufSize = 16
)

// BluezLocator looks the headset up in BlueZ over the system D-Bus and
// watches its Connected property for link loss.
type BluezLocator struct {
	conn    *dbus.Conn
	adapter string
}

// NewBluezLocator connects to the system bus. An empty adapter selects
// hci0.
func NewBluezLocator(adapter string) (*BluezLocator, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	return newBluezLocator(conn, adapter), nil
}

func newBluezLocator(conn *dbus.Conn, adapter string) *BluezLocator {
	if adapter == "" {
		adapter = defaultHCI
	}
	return &BluezLocator{conn: conn, adapter: adapter}
}

func (b *BluezLocator) Close() error {
	return b.conn.Close()
}

// devicePath converts "AA:BB:CC:DD:EE:FF" to
// "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF".
func devicePath(adapter, address string) dbus.ObjectPath {
	escaped := strings.ReplaceAll(strings.ToUpper(address), ":", "_")
	return dbus.ObjectPath("/org/bluez/" + adapter + "/dev_" + escaped)
}

func (b *BluezLocator) Lookup(ctx context.Context, address string) (Device, error) {
	path := devicePath(b.adapter, address)
	obj := b.conn.Object(bluezBus, path)

	var props map[string]dbus.Variant
	if err := obj.CallWithContext(ctx, dbusGetAll, 0, bluezDevice).Store(&props); err != nil {
		return Device{}, fmt.Errorf("bluez device %s: %w", path, err)
	}

	dev := Device{Address: address}
	if v, ok := props["Address"].Value().(string); ok {
		dev.Address = v
	}
	if v, ok := props["Alias"].Value().(string); ok {
		dev.Name = v
	} else if v, ok := props["Name"].Value().(string); ok {
		dev.Name = v
	}
	dev.Paired, _ = props["Paired"].Value().(bool)
	dev.Connected, _ = props["Connected"].Value().(bool)
	return dev, nil
}

func (b *BluezLocator) WatchLink(ctx context.Context, address string, onLost func()) error {
	path := devicePath(b.adapter, address)
	rule := fmt.Sprintf("type='signal',interface='%s',member='%s',path='%s'", propsIface, propsChanged, path)

	if err := b.conn.BusObject().CallWithContext(ctx, dbusAddMatch, 0, rule).Err; err != nil {
		return fmt.Errorf("add match: %w", err)
	}
	defer b.conn.BusObject().Call(dbusRemMatch, 0, rule)

	signals := make(chan *dbus.Signal, signalBufSize)
	b.conn.Signal(signals)
	defer b.conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("system bus closed")
			}
			if sig.Path == path && linkDropped(sig) {
				onLost()
			}
		}
	}
}

// linkDropped reports whether sig is a Device1 PropertiesChanged signal
// carrying Connected=false.
func linkDropped(sig *dbus.Signal) bool {
	if sig.Name != propsIface+"."+propsChanged || len(sig.Body) < 2 {
		return false
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != bluezDevice {
		return false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return false
	}
	v, ok := changed["Connected"]
	if !ok {
		return false
	}
	connected, ok := v.Value().(bool)
	return ok && !connected
}
