package testutils

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

// FakeGPUNode builds a node exposing count allocatable nvidia.com/gpu with
// the given product label.
func FakeGPUNode(name, product string, count int64) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{"nvidia.com/gpu.product": product},
		},
		Status: corev1.NodeStatus{
			Allocatable: corev1.ResourceList{
				"nvidia.com/gpu": *resource.NewQuantity(count, resource.DecimalSI),
			},
		},
	}
}

func NewFakeGPUCluster(nodes ...*corev1.Node) *fake.Clientset {
	client := fake.NewSimpleClientset()
	for _, n := range nodes {
		_ = client.Tracker().Add(n)
	}
	return client
}
